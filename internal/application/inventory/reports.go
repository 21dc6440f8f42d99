package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

// SheetLabels nombres legibles para imprimir un documento.
type SheetLabels struct {
	Warehouse       string
	TargetWarehouse string
	Products        map[string]entity.Product // por ID
}

// SheetRenderer genera la hoja imprimible de un documento (PDF).
type SheetRenderer interface {
	RenderDocument(ctx context.Context, doc *entity.Document, labels SheetLabels) ([]byte, error)
}

// MovementExporter exporta movimientos del diario a una planilla.
type MovementExporter interface {
	ExportMovements(ctx context.Context, movements []*entity.StockMovement, products map[string]entity.Product) ([]byte, error)
}

// Reports casos de uso de solo lectura que producen archivos (hoja del documento, planilla del diario).
type Reports struct {
	engine     *Engine
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	sheet      SheetRenderer
	exporter   MovementExporter
}

// NewReports construye el servicio de reportes.
func NewReports(engine *Engine, products repository.ProductRepository, warehouses repository.WarehouseRepository,
	sheet SheetRenderer, exporter MovementExporter) *Reports {
	return &Reports{engine: engine, products: products, warehouses: warehouses, sheet: sheet, exporter: exporter}
}

// DocumentSheet devuelve el PDF del documento junto con su número.
func (r *Reports) DocumentSheet(ctx context.Context, documentID string) ([]byte, string, error) {
	doc, err := r.engine.GetDocument(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	labels := SheetLabels{Products: map[string]entity.Product{}}
	if labels.Warehouse, err = r.warehouseName(ctx, doc.WarehouseID); err != nil {
		return nil, "", err
	}
	if doc.TargetWarehouseID != "" {
		if labels.TargetWarehouse, err = r.warehouseName(ctx, doc.TargetWarehouseID); err != nil {
			return nil, "", err
		}
	}
	ids := make([]string, 0, len(doc.Items))
	for _, it := range doc.Items {
		ids = append(ids, it.ProductID)
	}
	if labels.Products, err = r.productsByID(ctx, ids); err != nil {
		return nil, "", err
	}
	out, err := r.sheet.RenderDocument(ctx, doc, labels)
	if err != nil {
		return nil, "", r.engine.storageErr("generar pdf", err)
	}
	return out, doc.Number, nil
}

// MovementsWorkbook planilla con los movimientos desde since (máximo limit).
func (r *Reports) MovementsWorkbook(ctx context.Context, since time.Time, limit int) ([]byte, error) {
	list, err := r.engine.MovementsSince(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.ProductID)
	}
	products, err := r.productsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out, err := r.exporter.ExportMovements(ctx, list, products)
	if err != nil {
		return nil, r.engine.storageErr("exportar movimientos", err)
	}
	return out, nil
}

func (r *Reports) warehouseName(ctx context.Context, id string) (string, error) {
	w, err := r.warehouses.GetByID(ctx, id)
	if err != nil {
		return "", r.engine.storageErr("leer bodega", err)
	}
	if w == nil {
		return id, nil
	}
	return w.Name, nil
}

func (r *Reports) productsByID(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	out := make(map[string]entity.Product, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		p, err := r.products.GetByID(ctx, id)
		if err != nil {
			return nil, r.engine.storageErr("leer producto", err)
		}
		if p != nil {
			out[id] = *p
		}
	}
	return out, nil
}

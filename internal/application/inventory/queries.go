package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

// GetDocument devuelve el documento con sus líneas.
func (e *Engine) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	doc, err := e.docs.GetByID(ctx, id)
	if err != nil {
		return nil, e.storageErr("leer documento", err)
	}
	return e.withItems(ctx, doc)
}

// GetDocumentByNumber busca por número legible.
func (e *Engine) GetDocumentByNumber(ctx context.Context, number string) (*entity.Document, error) {
	doc, err := e.docs.GetByNumber(ctx, number)
	if err != nil {
		return nil, e.storageErr("leer documento", err)
	}
	return e.withItems(ctx, doc)
}

func (e *Engine) withItems(ctx context.Context, doc *entity.Document) (*entity.Document, error) {
	if doc == nil {
		return nil, domain.ErrDocumentNotFound
	}
	items, err := e.docs.ListItems(ctx, doc.ID)
	if err != nil {
		return nil, e.storageErr("leer líneas", err)
	}
	doc.Items = items
	return doc, nil
}

// ListDocuments lista cabeceras (sin líneas), más recientes primero.
func (e *Engine) ListDocuments(ctx context.Context, f dto.DocumentFilter) ([]*entity.Document, error) {
	f.Normalize()
	filter := repository.DocumentFilter{
		Kind:        entity.DocumentKind(f.Kind),
		Status:      entity.DocumentStatus(f.Status),
		WarehouseID: f.WarehouseID,
		CreatedBy:   f.CreatedBy,
		Limit:       f.Limit,
		Offset:      f.Offset,
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, domain.ErrInvalidInput
	}
	list, err := e.docs.ListByFilter(ctx, filter)
	if err != nil {
		return nil, e.storageErr("listar documentos", err)
	}
	return list, nil
}

// LedgerQuantity cantidad actual; 0 si el par nunca tuvo movimientos.
func (e *Engine) LedgerQuantity(ctx context.Context, productID, warehouseID string) (int64, error) {
	rec, err := e.ledger.Get(ctx, entity.InventoryKey{ProductID: productID, WarehouseID: warehouseID})
	if err != nil {
		return 0, e.storageErr("consultar inventario", err)
	}
	if rec == nil {
		return 0, nil
	}
	return rec.Quantity, nil
}

// InventoryByProduct existencias del producto en todas las bodegas.
func (e *Engine) InventoryByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error) {
	list, err := e.ledger.ListByProduct(ctx, productID)
	if err != nil {
		return nil, e.storageErr("consultar inventario", err)
	}
	return list, nil
}

// InventoryByWarehouse existencias de la bodega.
func (e *Engine) InventoryByWarehouse(ctx context.Context, warehouseID string) ([]*entity.InventoryRecord, error) {
	list, err := e.ledger.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, e.storageErr("consultar inventario", err)
	}
	return list, nil
}

// MovementsSince movimientos desde since en orden cronológico. limit <= 0 no limita.
func (e *Engine) MovementsSince(ctx context.Context, since time.Time, limit int) ([]*entity.StockMovement, error) {
	list, err := e.journal.ListSince(ctx, since, limit)
	if err != nil {
		return nil, e.storageErr("consultar movimientos", err)
	}
	return list, nil
}

// MovementsForInventory historial de una clave del libro.
func (e *Engine) MovementsForInventory(ctx context.Context, key entity.InventoryKey) ([]*entity.StockMovement, error) {
	list, err := e.journal.ListByInventory(ctx, key)
	if err != nil {
		return nil, e.storageErr("consultar movimientos", err)
	}
	return list, nil
}

// MovementsForActor movimientos registrados por un usuario.
func (e *Engine) MovementsForActor(ctx context.Context, actorID string) ([]*entity.StockMovement, error) {
	list, err := e.journal.ListByActor(ctx, actorID)
	if err != nil {
		return nil, e.storageErr("consultar movimientos", err)
	}
	return list, nil
}

// MovementsForDocument movimientos generados por un documento.
func (e *Engine) MovementsForDocument(ctx context.Context, documentID string) ([]*entity.StockMovement, error) {
	list, err := e.journal.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, e.storageErr("consultar movimientos", err)
	}
	return list, nil
}

// Package export genera planillas Excel con el diario de movimientos.
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Bodega-api/internal/application/inventory"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// SheetName nombre de la hoja con los movimientos.
const SheetName = "Movimientos"

var header = []interface{}{
	"Fecha",
	"Bodega",
	"SKU",
	"Producto",
	"Acción",
	"Cantidad",
	"Usuario",
	"Referencia",
}

var _ inventory.MovementExporter = (*MovementWorkbook)(nil)

// MovementWorkbook implementa inventory.MovementExporter con excelize.
type MovementWorkbook struct{}

// NewMovementWorkbook construye el exportador.
func NewMovementWorkbook() *MovementWorkbook { return &MovementWorkbook{} }

// ExportMovements una fila por movimiento, en el orden recibido.
func (w *MovementWorkbook) ExportMovements(ctx context.Context, movements []*entity.StockMovement, products map[string]entity.Product) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetName); err != nil {
		return nil, fmt.Errorf("export: hoja: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("export: encabezado: %w", err)
	}

	row := 2
	for _, m := range movements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := products[m.ProductID]
		values := []interface{}{
			m.CreatedAt.Format("2006-01-02 15:04:05"),
			m.WarehouseID,
			nonEmpty(p.SKU, m.ProductID),
			p.Name,
			string(m.Action),
			m.Quantity,
			m.ActorID,
			m.Reference,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("export: celda: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("export: fila %d: %w", row, err)
		}
		row++
	}
	_ = f.SetColWidth(SheetName, "A", "A", 20)
	_ = f.SetColWidth(SheetName, "H", "H", 32)

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("export: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

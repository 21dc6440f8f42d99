// Package pdf genera la hoja imprimible de los documentos de bodega.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tipo de documento    │  N° Documento + QR           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  BODEGAS: Origen / Destino + Estado + Tercero                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | SKU | Producto | Cant. | (Sistema | Dif.) | P.U. │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: unidades + valor                                   │
//	│  FIRMAS: creado / aprobado / ejecutado / confirmado          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/Bodega-api/internal/application/inventory"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ inventory.SheetRenderer = (*DocumentSheetGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// DocumentSheetGenerator implementa inventory.SheetRenderer usando Maroto v2.
type DocumentSheetGenerator struct {
	p *message.Printer
}

// NewDocumentSheetGenerator construye el generador; las cifras salen con separadores en español.
func NewDocumentSheetGenerator() *DocumentSheetGenerator {
	return &DocumentSheetGenerator{p: message.NewPrinter(language.Spanish)}
}

// RenderDocument genera el PDF y devuelve sus bytes.
func (g *DocumentSheetGenerator) RenderDocument(_ context.Context, doc *entity.Document, labels inventory.SheetLabels) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(doc.Kind.Label()+" "+doc.Number, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(warehousesRow(doc, labels))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	stocktaking := doc.Kind == entity.KindStocktaking
	m.AddRows(tableHeaderRow(stocktaking))
	for _, r := range g.itemRows(doc.Items, labels.Products, stocktaking) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(doc.Items))
	m.AddRows(line.NewRow(4))
	m.AddRows(signaturesRow(doc))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: tipo y número (izq), QR con el número (der).
func headerRow(doc *entity.Document) core.Row {
	return row.New(24).Add(
		col.New(8).Add(
			text.New(doc.Kind.Label(), props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1,
			}),
			text.New("N° "+doc.Number, props.Text{
				Style: fontstyle.Bold, Size: 11, Top: 10,
			}),
			text.New("Fecha: "+doc.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Top: 17, Color: colorGray,
			}),
		),
		col.New(4).Add(code.NewQr(doc.Number, props.Rect{Percent: 90, Center: true})),
	)
}

// warehousesRow: bodegas, estado y tercero.
func warehousesRow(doc *entity.Document, labels inventory.SheetLabels) core.Row {
	bodega := "Bodega: " + nonEmpty(labels.Warehouse, doc.WarehouseID)
	if doc.Kind == entity.KindTransfer {
		bodega = fmt.Sprintf("Origen: %s   →   Destino: %s",
			nonEmpty(labels.Warehouse, doc.WarehouseID),
			nonEmpty(labels.TargetWarehouse, doc.TargetWarehouseID))
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New(bodega, props.Text{Style: fontstyle.Bold, Size: 9, Top: 1}),
			text.New(fmt.Sprintf("Estado: %s   |   Tercero: %s   |   Observación: %s",
				statusLabel(doc.Status),
				nonEmpty(doc.Partner, "—"),
				nonEmpty(doc.Remark, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// tableHeaderRow: en conteo físico se muestran cantidad del sistema y diferencia.
func tableHeaderRow(stocktaking bool) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	if stocktaking {
		return row.New(8).Add(
			h("#", 1, align.Center),
			h("SKU", 2, align.Left),
			h("Producto", 4, align.Left),
			h("Contado", 2, align.Right),
			h("Sistema", 2, align.Right),
			h("Dif.", 1, align.Right),
		)
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("SKU", 2, align.Left),
		h("Producto", 5, align.Left),
		h("Cant.", 2, align.Right),
		h("P. Unit.", 2, align.Right),
	)
}

// itemRows: una fila por línea.
func (g *DocumentSheetGenerator) itemRows(items []entity.DocumentItem, products map[string]entity.Product, stocktaking bool) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	result := make([]core.Row, 0, len(items))
	for i, it := range items {
		p, ok := products[it.ProductID]
		sku, name := it.ProductID, it.ProductID
		if ok {
			sku, name = p.SKU, p.Name
		}
		n := fmt.Sprint(i + 1)
		if stocktaking {
			result = append(result, row.New(7).Add(
				cell(n, 1, align.Center),
				cell(sku, 2, align.Left),
				cell(name, 4, align.Left),
				cell(g.p.Sprintf("%d", it.Quantity), 2, align.Right),
				cell(g.p.Sprintf("%d", it.SystemQty), 2, align.Right),
				cell(g.p.Sprintf("%+d", it.DiffQty), 1, align.Right),
			))
			continue
		}
		result = append(result, row.New(7).Add(
			cell(n, 1, align.Center),
			cell(sku, 2, align.Left),
			cell(name, 5, align.Left),
			cell(g.p.Sprintf("%d", it.Quantity), 2, align.Right),
			cell(g.money(it.UnitPrice), 2, align.Right),
		))
	}
	return result
}

// totalsRow: unidades y valor (si hay precios).
func (g *DocumentSheetGenerator) totalsRow(items []entity.DocumentItem) core.Row {
	var units int64
	total := decimal.Zero
	priced := false
	for _, it := range items {
		units += it.Quantity
		if it.UnitPrice != nil {
			priced = true
			total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
		}
	}
	value := "—"
	if priced {
		value = g.money(&total)
	}
	bold := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Color: colorPrimary}
	return row.New(10).Add(
		col.New(6),
		col.New(3).Add(text.New("Unidades: "+g.p.Sprintf("%d", units), bold)),
		col.New(3).Add(text.New("Valor: "+value, bold)),
	)
}

// signaturesRow: actor y fecha de cada sello.
func signaturesRow(doc *entity.Document) core.Row {
	stamp := func(title, actor string, at *time.Time) core.Col {
		when := "—"
		if at != nil {
			when = at.Format("02/01/2006 15:04")
		}
		return col.New(3).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 7, Color: colorPrimary}),
			text.New(nonEmpty(actor, "—"), props.Text{Size: 8, Top: 5}),
			text.New(when, props.Text{Size: 7, Top: 10, Color: colorGray}),
		)
	}
	created := doc.CreatedAt
	return row.New(16).Add(
		stamp("CREADO", doc.CreatedBy, &created),
		stamp("APROBADO", doc.ApprovedBy, doc.ApprovedAt),
		stamp("EJECUTADO", doc.ExecutedBy, doc.ExecutedAt),
		stamp("CONFIRMADO", doc.ConfirmedBy, doc.ConfirmedAt),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (g *DocumentSheetGenerator) money(d *decimal.Decimal) string {
	if d == nil {
		return "—"
	}
	return "$" + g.p.Sprintf("%.2f", d.InexactFloat64())
}

func statusLabel(s entity.DocumentStatus) string {
	switch s {
	case entity.StatusCreated:
		return "Creado"
	case entity.StatusApproved:
		return "Aprobado"
	case entity.StatusExecuted:
		return "Ejecutado"
	case entity.StatusConfirmed:
		return "Confirmado"
	}
	return string(s)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

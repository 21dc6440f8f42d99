package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind tipo de documento de bodega.
type DocumentKind string

const (
	KindInbound     DocumentKind = "inbound"     // entrada de mercancía
	KindOutbound    DocumentKind = "outbound"    // salida de mercancía
	KindTransfer    DocumentKind = "transfer"    // traslado entre bodegas
	KindStocktaking DocumentKind = "stocktaking" // conteo físico
)

// Kinds todos los tipos soportados.
var Kinds = []DocumentKind{KindInbound, KindOutbound, KindTransfer, KindStocktaking}

// Valid indica si k es un tipo conocido.
func (k DocumentKind) Valid() bool {
	switch k {
	case KindInbound, KindOutbound, KindTransfer, KindStocktaking:
		return true
	}
	return false
}

// Label nombre legible, usado en la referencia de los movimientos.
func (k DocumentKind) Label() string {
	switch k {
	case KindInbound:
		return "Entrada"
	case KindOutbound:
		return "Salida"
	case KindTransfer:
		return "Traslado"
	case KindStocktaking:
		return "Inventario físico"
	}
	return string(k)
}

// DocumentStatus estado del ciclo de vida.
type DocumentStatus string

const (
	StatusCreated   DocumentStatus = "created"
	StatusApproved  DocumentStatus = "approved"
	StatusExecuted  DocumentStatus = "executed"
	StatusConfirmed DocumentStatus = "confirmed"
)

// Document cabecera de un documento de bodega. Las líneas se fijan al crearlo.
type Document struct {
	ID                string
	Number            string
	Kind              DocumentKind
	WarehouseID       string // bodega del documento; origen en traslados
	TargetWarehouseID string // solo traslados
	Status            DocumentStatus
	Partner           string // proveedor (entrada) o cliente (salida)
	OutboundType      string // venta, devolución, otro
	Remark            string
	CreatedBy         string
	ApprovedBy        string
	ApprovedAt        *time.Time
	ExecutedBy        string
	ExecutedAt        *time.Time
	ConfirmedBy       string
	ConfirmedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Items             []DocumentItem
}

// Stamp registra actor y fecha del estado alcanzado.
func (d *Document) Stamp(status DocumentStatus, actorID string, at time.Time) {
	d.Status = status
	d.UpdatedAt = at
	t := at
	switch status {
	case StatusApproved:
		d.ApprovedBy, d.ApprovedAt = actorID, &t
	case StatusExecuted:
		d.ExecutedBy, d.ExecutedAt = actorID, &t
	case StatusConfirmed:
		d.ConfirmedBy, d.ConfirmedAt = actorID, &t
	}
}

// MaxItemQuantity tope de unidades por línea.
const MaxItemQuantity int64 = 1_000_000_000_000

// DocumentItem línea de un documento. En conteo físico Quantity es la cantidad contada.
type DocumentItem struct {
	ID         string
	DocumentID string
	ProductID  string
	Quantity   int64
	UnitPrice  *decimal.Decimal
	Remark     string
	SystemQty  int64 // snapshot del libro al crear (solo conteo físico)
	DiffQty    int64 // Quantity - SystemQty, inmutable
}

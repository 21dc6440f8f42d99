package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// DocumentItemInput línea de un documento nuevo. En conteo físico Quantity es la cantidad contada.
type DocumentItemInput struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Remark    string           `json:"remark,omitempty"`
}

// CreateDocumentInput body para POST /api/documents/:kind.
// TargetWarehouseID solo aplica a traslados; Partner y OutboundType a entradas/salidas.
type CreateDocumentInput struct {
	WarehouseID       string              `json:"warehouse_id" validate:"required"`
	TargetWarehouseID string              `json:"target_warehouse_id,omitempty"`
	Partner           string              `json:"partner,omitempty"`
	OutboundType      string              `json:"outbound_type,omitempty"`
	Remark            string              `json:"remark,omitempty"`
	Items             []DocumentItemInput `json:"items"`
}

// AdvanceRequest body para POST /api/documents/:id/advance.
type AdvanceRequest struct {
	Status string `json:"status"`
}

// DocumentFilter filtros de GET /api/documents.
type DocumentFilter struct {
	Kind        string `query:"kind"`
	Status      string `query:"status"`
	WarehouseID string `query:"warehouse_id"`
	CreatedBy   string `query:"created_by"`
	PageRequest
}

// Normalize aplica la paginación por defecto y el tope de 100.
func (f *DocumentFilter) Normalize() {
	f.DefaultPage()
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// DocumentItemResponse salida de una línea.
type DocumentItemResponse struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Remark    string           `json:"remark,omitempty"`
	SystemQty *int64           `json:"system_qty,omitempty"`
	DiffQty   *int64           `json:"diff_qty,omitempty"`
}

// DocumentResponse salida de un documento con sus líneas.
type DocumentResponse struct {
	ID                string                 `json:"id"`
	Number            string                 `json:"number"`
	Kind              string                 `json:"kind"`
	Status            string                 `json:"status"`
	WarehouseID       string                 `json:"warehouse_id"`
	TargetWarehouseID string                 `json:"target_warehouse_id,omitempty"`
	Partner           string                 `json:"partner,omitempty"`
	OutboundType      string                 `json:"outbound_type,omitempty"`
	Remark            string                 `json:"remark,omitempty"`
	CreatedBy         string                 `json:"created_by"`
	ApprovedBy        string                 `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time             `json:"approved_at,omitempty"`
	ExecutedBy        string                 `json:"executed_by,omitempty"`
	ExecutedAt        *time.Time             `json:"executed_at,omitempty"`
	ConfirmedBy       string                 `json:"confirmed_by,omitempty"`
	ConfirmedAt       *time.Time             `json:"confirmed_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	Items             []DocumentItemResponse `json:"items,omitempty"`
}

// DocumentListResponse lista paginada de documentos.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ToDocumentResponse convierte la entidad al formato de salida.
func ToDocumentResponse(d *entity.Document) DocumentResponse {
	out := DocumentResponse{
		ID:                d.ID,
		Number:            d.Number,
		Kind:              string(d.Kind),
		Status:            string(d.Status),
		WarehouseID:       d.WarehouseID,
		TargetWarehouseID: d.TargetWarehouseID,
		Partner:           d.Partner,
		OutboundType:      d.OutboundType,
		Remark:            d.Remark,
		CreatedBy:         d.CreatedBy,
		ApprovedBy:        d.ApprovedBy,
		ApprovedAt:        d.ApprovedAt,
		ExecutedBy:        d.ExecutedBy,
		ExecutedAt:        d.ExecutedAt,
		ConfirmedBy:       d.ConfirmedBy,
		ConfirmedAt:       d.ConfirmedAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	for _, it := range d.Items {
		item := DocumentItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Remark:    it.Remark,
		}
		if d.Kind == entity.KindStocktaking {
			sys, diff := it.SystemQty, it.DiffQty
			item.SystemQty, item.DiffQty = &sys, &diff
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// InventoryRecordResponse cantidad de un producto en una bodega.
type InventoryRecordResponse struct {
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Quantity    int64     `json:"quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToInventoryRecordResponse convierte un registro del libro.
func ToInventoryRecordResponse(r *entity.InventoryRecord) InventoryRecordResponse {
	return InventoryRecordResponse{
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		Quantity:    r.Quantity,
		UpdatedAt:   r.UpdatedAt,
	}
}

// MovementResponse movimiento del diario.
type MovementResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Action      string    `json:"action"`
	Quantity    int64     `json:"quantity"`
	ActorID     string    `json:"actor_id"`
	Reference   string    `json:"reference"`
	DocumentID  string    `json:"document_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToMovementResponses convierte una lista de movimientos.
func ToMovementResponses(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementResponse{
			ID:          m.ID,
			ProductID:   m.ProductID,
			WarehouseID: m.WarehouseID,
			Action:      string(m.Action),
			Quantity:    m.Quantity,
			ActorID:     m.ActorID,
			Reference:   m.Reference,
			DocumentID:  m.DocumentID,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}

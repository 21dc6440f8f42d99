package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/lifecycle"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

func newID() string { return uuid.New().String() }

// CreateDocument valida el documento, le asigna número y lo guarda en estado created con todas sus líneas.
// En conteo físico fija system_qty desde el libro y diff_qty = contado - sistema.
func (e *Engine) CreateDocument(ctx context.Context, kind entity.DocumentKind, in dto.CreateDocumentInput, actorID string) (*entity.Document, error) {
	machine, err := lifecycle.For(kind)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, fmt.Errorf("%w: creador requerido", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyItemSet
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if err := e.checkWarehouses(ctx, kind, in); err != nil {
		return nil, err
	}
	if err := e.checkItems(ctx, kind, in.Items); err != nil {
		return nil, err
	}

	now := e.now()
	doc := &entity.Document{
		ID:          newID(),
		Kind:        kind,
		WarehouseID: in.WarehouseID,
		Status:      machine.Initial(),
		Remark:      in.Remark,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch kind {
	case entity.KindTransfer:
		doc.TargetWarehouseID = in.TargetWarehouseID
	case entity.KindInbound:
		doc.Partner = in.Partner
	case entity.KindOutbound:
		doc.Partner = in.Partner
		doc.OutboundType = in.OutboundType
	}

	doc.Items = make([]entity.DocumentItem, 0, len(in.Items))
	for _, it := range in.Items {
		item := entity.DocumentItem{
			ID:         newID(),
			DocumentID: doc.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Remark:     it.Remark,
		}
		if kind == entity.KindStocktaking {
			rec, err := e.ledger.Get(ctx, entity.InventoryKey{ProductID: it.ProductID, WarehouseID: in.WarehouseID})
			if err != nil {
				return nil, e.storageErr("snapshot de inventario", err)
			}
			if rec != nil {
				item.SystemQty = rec.Quantity
			}
			item.DiffQty = item.Quantity - item.SystemQty
		}
		doc.Items = append(doc.Items, item)
	}

	for attempt := 1; ; attempt++ {
		number, err := e.numbers.Next(ctx, machine.Prefix())
		if err != nil {
			return nil, e.storageErr("numerar documento", err)
		}
		doc.Number = number
		err = e.tx.Run(ctx, func(docs repository.DocumentRepository, _ repository.InventoryRepository, _ repository.StockMovementRepository) error {
			return docs.Create(ctx, doc)
		})
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicate) && attempt < maxNumberAttempts {
			e.log.Warn().Str("number", number).Int("attempt", attempt).Msg("número de documento repetido, reintentando")
			continue
		}
		return nil, e.storageErr("crear documento", err)
	}

	e.observer.DocumentCreated(kind)
	e.log.Info().
		Str("document_id", doc.ID).
		Str("number", doc.Number).
		Str("kind", string(kind)).
		Str("actor", actorID).
		Int("items", len(doc.Items)).
		Msg("documento creado")
	return doc, nil
}

func (e *Engine) checkWarehouses(ctx context.Context, kind entity.DocumentKind, in dto.CreateDocumentInput) error {
	if in.WarehouseID == "" {
		return fmt.Errorf("%w: bodega requerida", domain.ErrInvalidInput)
	}
	if err := e.activeWarehouse(ctx, in.WarehouseID); err != nil {
		return err
	}
	if kind != entity.KindTransfer {
		if in.TargetWarehouseID != "" {
			return fmt.Errorf("%w: bodega destino solo aplica a traslados", domain.ErrInvalidInput)
		}
		return nil
	}
	if in.TargetWarehouseID == "" {
		return fmt.Errorf("%w: bodega destino requerida", domain.ErrInvalidInput)
	}
	if in.TargetWarehouseID == in.WarehouseID {
		return fmt.Errorf("%w: origen y destino deben ser distintos", domain.ErrInvalidInput)
	}
	return e.activeWarehouse(ctx, in.TargetWarehouseID)
}

func (e *Engine) activeWarehouse(ctx context.Context, id string) error {
	wh, err := e.warehouses.GetByID(ctx, id)
	if err != nil {
		return e.storageErr("consultar bodega", err)
	}
	if wh == nil {
		return fmt.Errorf("%w: %s", domain.ErrUnknownWarehouse, id)
	}
	if !wh.IsActive {
		return &domain.InactiveWarehouseError{WarehouseID: id}
	}
	return nil
}

func (e *Engine) checkItems(ctx context.Context, kind entity.DocumentKind, items []dto.DocumentItemInput) error {
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidInput, i+1)
		}
		if kind == entity.KindStocktaking {
			if it.Quantity < 0 {
				return fmt.Errorf("%w: línea %d cantidad contada negativa", domain.ErrInvalidInput, i+1)
			}
			if seen[it.ProductID] {
				return fmt.Errorf("%w: producto %s repetido en el conteo", domain.ErrInvalidInput, it.ProductID)
			}
		} else if it.Quantity <= 0 {
			return fmt.Errorf("%w: línea %d cantidad debe ser mayor a 0", domain.ErrInvalidInput, i+1)
		}
		if it.Quantity > entity.MaxItemQuantity {
			return fmt.Errorf("%w: línea %d supera el máximo de %d unidades", domain.ErrInvalidInput, i+1, entity.MaxItemQuantity)
		}
		if it.UnitPrice != nil && it.UnitPrice.LessThan(decimal.Zero) {
			return fmt.Errorf("%w: línea %d precio negativo", domain.ErrInvalidInput, i+1)
		}
		seen[it.ProductID] = true

		p, err := e.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return e.storageErr("consultar producto", err)
		}
		if p == nil || !p.IsActive {
			return &domain.UnknownProductError{ProductID: it.ProductID}
		}
	}
	return nil
}

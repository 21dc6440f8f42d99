package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/lifecycle"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

// ── Productos ────────────────────────────────────────────────────────────────

type productRepo struct {
	crud[entity.Product]
}

func newProductCrud(sc scope) crud[entity.Product] {
	return crud[entity.Product]{
		sc:    sc,
		table: func(st *state) map[string]entity.Product { return st.products },
		id:    func(p *entity.Product) string { return p.ID },
		less:  func(a, b *entity.Product) bool { return a.SKU < b.SKU },
	}
}

func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	return r.sc.write(ctx, func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, other := range st.products {
			if other.SKU == p.SKU {
				return domain.ErrDuplicate
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

func (r *productRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.sc.read(func(st *state) error {
		for _, p := range st.products {
			if p.SKU == sku {
				p := p
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

// ── Bodegas ──────────────────────────────────────────────────────────────────

type warehouseRepo struct {
	crud[entity.Warehouse]
}

func newWarehouseCrud(sc scope) crud[entity.Warehouse] {
	return crud[entity.Warehouse]{
		sc:    sc,
		table: func(st *state) map[string]entity.Warehouse { return st.warehouses },
		id:    func(w *entity.Warehouse) string { return w.ID },
		less:  func(a, b *entity.Warehouse) bool { return a.Code < b.Code },
	}
}

func (r *warehouseRepo) SetActive(ctx context.Context, id string, active bool) error {
	now := r.sc.store.now()
	return r.update(ctx, id, func(w *entity.Warehouse) error {
		w.IsActive = active
		w.UpdatedAt = now
		return nil
	})
}

// ── Documentos ───────────────────────────────────────────────────────────────

type documentRepo struct {
	crud[entity.Document]
}

func newDocumentCrud(sc scope) crud[entity.Document] {
	return crud[entity.Document]{
		sc:    sc,
		table: func(st *state) map[string]entity.Document { return st.documents },
		id:    func(d *entity.Document) string { return d.ID },
		less:  newestFirst,
	}
}

func newestFirst(a, b *entity.Document) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.Number > b.Number
}

// Create guarda cabecera y líneas; el número es único.
func (r *documentRepo) Create(ctx context.Context, d *entity.Document) error {
	return r.sc.write(ctx, func(st *state) error {
		if _, ok := st.documents[d.ID]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := st.numbers[d.Number]; ok {
			return domain.ErrDuplicate
		}
		header := *d
		header.Items = nil
		st.documents[d.ID] = header
		st.numbers[d.Number] = d.ID
		items := make([]entity.DocumentItem, len(d.Items))
		copy(items, d.Items)
		for i := range items {
			items[i].DocumentID = d.ID
		}
		st.items[d.ID] = items
		return nil
	})
}

func (r *documentRepo) GetByNumber(ctx context.Context, number string) (*entity.Document, error) {
	var id string
	if err := r.sc.read(func(st *state) error {
		id = st.numbers[number]
		return nil
	}); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// GetForUpdate dentro de una transacción la serialización del almacén ya actúa como bloqueo.
func (r *documentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.GetByID(ctx, id)
}

func (r *documentRepo) ListItems(_ context.Context, documentID string) ([]entity.DocumentItem, error) {
	var out []entity.DocumentItem
	err := r.sc.read(func(st *state) error {
		out = append([]entity.DocumentItem(nil), st.items[documentID]...)
		return nil
	})
	return out, err
}

func (r *documentRepo) ListByFilter(_ context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	var out []*entity.Document
	err := r.sc.read(func(st *state) error {
		for _, d := range sortedValues(st.documents, newestFirst) {
			if f.Kind != "" && d.Kind != f.Kind {
				continue
			}
			if f.Status != "" && d.Status != f.Status {
				continue
			}
			if f.WarehouseID != "" && d.WarehouseID != f.WarehouseID && d.TargetWarehouseID != f.WarehouseID {
				continue
			}
			if f.CreatedBy != "" && d.CreatedBy != f.CreatedBy {
				continue
			}
			out = append(out, d)
		}
		return nil
	})
	return page(out, f.Limit, f.Offset), err
}

func (r *documentRepo) UpdateStatus(ctx context.Context, d *entity.Document, from entity.DocumentStatus) (bool, error) {
	updated := false
	err := r.sc.write(ctx, func(st *state) error {
		cur, ok := st.documents[d.ID]
		if !ok || cur.Status != from {
			return nil
		}
		cur.Status = d.Status
		cur.ApprovedBy, cur.ApprovedAt = d.ApprovedBy, d.ApprovedAt
		cur.ExecutedBy, cur.ExecutedAt = d.ExecutedBy, d.ExecutedAt
		cur.ConfirmedBy, cur.ConfirmedAt = d.ConfirmedBy, d.ConfirmedAt
		cur.UpdatedAt = d.UpdatedAt
		st.documents[d.ID] = cur
		updated = true
		return nil
	})
	return updated, err
}

// ── Libro de inventario ──────────────────────────────────────────────────────

type inventoryRepo struct {
	sc scope
}

func (r *inventoryRepo) GetOrCreate(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error) {
	var out entity.InventoryRecord
	err := r.sc.write(ctx, func(st *state) error {
		rec, ok := st.inventory[key]
		if !ok {
			now := r.sc.store.now()
			rec = entity.InventoryRecord{
				ProductID:   key.ProductID,
				WarehouseID: key.WarehouseID,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			st.inventory[key] = rec
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockForUpdate la transacción en curso ya tiene acceso exclusivo.
func (r *inventoryRepo) LockForUpdate(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error) {
	return r.Get(ctx, key)
}

func (r *inventoryRepo) Adjust(ctx context.Context, key entity.InventoryKey, delta int64) (*entity.InventoryRecord, error) {
	var out entity.InventoryRecord
	err := r.sc.write(ctx, func(st *state) error {
		rec, ok := st.inventory[key]
		if !ok {
			return &domain.MissingInventoryRecordError{ProductID: key.ProductID, WarehouseID: key.WarehouseID}
		}
		after, ok := lifecycle.AddQty(rec.Quantity, delta)
		if !ok {
			return fmt.Errorf("%w: inventario fuera de rango", domain.ErrInvalidInput)
		}
		if after < 0 {
			return &domain.InsufficientStockError{
				ProductID:   key.ProductID,
				WarehouseID: key.WarehouseID,
				Required:    -delta,
				Available:   rec.Quantity,
			}
		}
		rec.Quantity = after
		rec.UpdatedAt = r.sc.store.now()
		st.inventory[key] = rec
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *inventoryRepo) Get(_ context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error) {
	var out *entity.InventoryRecord
	err := r.sc.read(func(st *state) error {
		if rec, ok := st.inventory[key]; ok {
			out = &rec
		}
		return nil
	})
	return out, err
}

func (r *inventoryRepo) ListByProduct(_ context.Context, productID string) ([]*entity.InventoryRecord, error) {
	return r.filter(func(k entity.InventoryKey) bool { return k.ProductID == productID })
}

func (r *inventoryRepo) ListByWarehouse(_ context.Context, warehouseID string) ([]*entity.InventoryRecord, error) {
	return r.filter(func(k entity.InventoryKey) bool { return k.WarehouseID == warehouseID })
}

func (r *inventoryRepo) filter(match func(entity.InventoryKey) bool) ([]*entity.InventoryRecord, error) {
	out := []*entity.InventoryRecord{}
	err := r.sc.read(func(st *state) error {
		for k, rec := range st.inventory {
			if match(k) {
				rec := rec
				out = append(out, &rec)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out, err
}

// ── Diario de movimientos ────────────────────────────────────────────────────

type movementRepo struct {
	sc scope
}

func (r *movementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	return r.sc.write(ctx, func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *movementRepo) ListByInventory(_ context.Context, key entity.InventoryKey) ([]*entity.StockMovement, error) {
	return r.filter(func(m *entity.StockMovement) bool { return m.Key() == key }, 0)
}

func (r *movementRepo) ListByActor(_ context.Context, actorID string) ([]*entity.StockMovement, error) {
	return r.filter(func(m *entity.StockMovement) bool { return m.ActorID == actorID }, 0)
}

func (r *movementRepo) ListByDocument(_ context.Context, documentID string) ([]*entity.StockMovement, error) {
	return r.filter(func(m *entity.StockMovement) bool { return m.DocumentID == documentID }, 0)
}

func (r *movementRepo) ListSince(_ context.Context, since time.Time, limit int) ([]*entity.StockMovement, error) {
	return r.filter(func(m *entity.StockMovement) bool { return !m.CreatedAt.Before(since) }, limit)
}

// filter recorre el diario en orden de inserción, que es el orden cronológico.
func (r *movementRepo) filter(match func(*entity.StockMovement) bool, limit int) ([]*entity.StockMovement, error) {
	out := []*entity.StockMovement{}
	err := r.sc.read(func(st *state) error {
		for i := range st.movements {
			m := st.movements[i]
			if !match(&m) {
				continue
			}
			out = append(out, &m)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// ── Secuencias ───────────────────────────────────────────────────────────────

type sequenceRepo struct {
	sc scope
}

func (r *sequenceRepo) NextValue(ctx context.Context, prefix string, day time.Time) (int64, error) {
	var n int64
	key := prefix + "|" + day.Format("20060102")
	err := r.sc.write(ctx, func(st *state) error {
		st.sequences[key]++
		n = st.sequences[key]
		return nil
	})
	return n, err
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo libro de inventario sobre la tabla inventory (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

const inventoryColumns = `product_id, warehouse_id, quantity, created_at, updated_at`

func scanInventory(row pgx.Row) (*entity.InventoryRecord, error) {
	var r entity.InventoryRecord
	if err := row.Scan(&r.ProductID, &r.WarehouseID, &r.Quantity, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetOrCreate inserta el registro en 0 si no existe. La PK (product_id, warehouse_id) garantiza
// una sola fila por clave aunque dos transacciones lo intenten a la vez.
func (r *InventoryRepo) GetOrCreate(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory (product_id, warehouse_id, quantity, created_at, updated_at)
		VALUES ($1, $2, 0, now(), now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`,
		key.ProductID, key.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("get or create inventory: %w", err)
	}
	rec, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("get or create inventory: fila %s no visible", key)
	}
	return rec, nil
}

// LockForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE). Nil si no existe.
func (r *InventoryRepo) LockForUpdate(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error) {
	rec, err := scanInventory(r.q.QueryRow(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`, key.ProductID, key.WarehouseID))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock inventory: %w", err)
	}
	return rec, nil
}

// Adjust suma delta en una sola sentencia condicionada; si no hay fila afectada distingue
// entre registro inexistente y stock insuficiente.
func (r *InventoryRepo) Adjust(ctx context.Context, key entity.InventoryKey, delta int64) (*entity.InventoryRecord, error) {
	rec, err := scanInventory(r.q.QueryRow(ctx, `
		UPDATE inventory SET quantity = quantity + $3, updated_at = now()
		WHERE product_id = $1 AND warehouse_id = $2 AND quantity + $3 >= 0
		RETURNING `+inventoryColumns, key.ProductID, key.WarehouseID, delta))
	if err == nil {
		return rec, nil
	}
	if isCheckViolation(err) {
		return nil, &domain.InsufficientStockError{ProductID: key.ProductID, WarehouseID: key.WarehouseID, Required: -delta}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust inventory: %w", err)
	}
	current, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &domain.MissingInventoryRecordError{ProductID: key.ProductID, WarehouseID: key.WarehouseID}
	}
	return nil, &domain.InsufficientStockError{
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		Required:    -delta,
		Available:   current.Quantity,
	}
}

// Get lectura sin bloqueo. Nil si el par nunca tuvo movimientos.
func (r *InventoryRepo) Get(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error) {
	rec, err := scanInventory(r.q.QueryRow(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory WHERE product_id = $1 AND warehouse_id = $2`, key.ProductID, key.WarehouseID))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	return rec, nil
}

// ListByProduct existencias del producto en todas las bodegas.
func (r *InventoryRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error) {
	return r.list(ctx, `WHERE product_id = $1`, productID)
}

// ListByWarehouse existencias de una bodega.
func (r *InventoryRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.InventoryRecord, error) {
	return r.list(ctx, `WHERE warehouse_id = $1`, warehouseID)
}

func (r *InventoryRepo) list(ctx context.Context, where string, arg string) ([]*entity.InventoryRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+inventoryColumns+` FROM inventory `+where+`
		ORDER BY warehouse_id, product_id`, arg)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()
	list := []*entity.InventoryRecord{}
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

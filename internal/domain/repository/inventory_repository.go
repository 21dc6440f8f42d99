package repository

import (
	"context"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// InventoryRepository libro de cantidades por (producto, bodega).
// Dentro de una transacción, LockForUpdate y Adjust operan sobre filas bloqueadas.
type InventoryRepository interface {
	// GetOrCreate devuelve el registro o lo crea en 0. Seguro ante llamadas concurrentes (clave única).
	GetOrCreate(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error)
	// LockForUpdate bloquea la fila (SELECT FOR UPDATE). Nil si no existe.
	LockForUpdate(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error)
	// Adjust aplica delta; devuelve domain.InsufficientStockError si el resultado sería negativo.
	Adjust(ctx context.Context, key entity.InventoryKey, delta int64) (*entity.InventoryRecord, error)
	Get(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error)
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.InventoryRecord, error)
}

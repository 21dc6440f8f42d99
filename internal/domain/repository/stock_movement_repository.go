package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// StockMovementRepository diario de movimientos, solo inserción (DIP).
// Todas las lecturas devuelven en orden ascendente por fecha.
type StockMovementRepository interface {
	Append(ctx context.Context, movement *entity.StockMovement) error
	ListByInventory(ctx context.Context, key entity.InventoryKey) ([]*entity.StockMovement, error)
	ListByActor(ctx context.Context, actorID string) ([]*entity.StockMovement, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.StockMovement, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]*entity.StockMovement, error)
}

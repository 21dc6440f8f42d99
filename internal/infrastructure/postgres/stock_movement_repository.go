package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo diario de movimientos sobre stock_movements (solo INSERT y SELECT).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, warehouse_id, action, quantity, actor_id, reference, document_id, created_at`

// Append inserta un movimiento. Siempre en la misma tx que el ajuste del libro.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.ProductID, m.WarehouseID, string(m.Action), m.Quantity,
		m.ActorID, m.Reference, nullable(m.DocumentID), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// ListByInventory historial de una clave del libro.
func (r *StockMovementRepo) ListByInventory(ctx context.Context, key entity.InventoryKey) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE product_id = $1 AND warehouse_id = $2`, key.ProductID, key.WarehouseID)
}

// ListByActor movimientos de un usuario.
func (r *StockMovementRepo) ListByActor(ctx context.Context, actorID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE actor_id = $1`, actorID)
}

// ListByDocument movimientos generados por un documento.
func (r *StockMovementRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `WHERE document_id = $1`, documentID)
}

// ListSince movimientos desde since; limit <= 0 no limita.
func (r *StockMovementRepo) ListSince(ctx context.Context, since time.Time, limit int) ([]*entity.StockMovement, error) {
	if limit > 0 {
		return r.list(ctx, `WHERE created_at >= $1 ORDER BY created_at, seq LIMIT $2`, since, limit)
	}
	return r.list(ctx, `WHERE created_at >= $1 ORDER BY created_at, seq`, since)
}

// list ejecuta la consulta; clauses sin ORDER BY se ordenan por inserción.
func (r *StockMovementRepo) list(ctx context.Context, clause string, args ...any) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements ` + clause
	if !strings.Contains(clause, "ORDER BY") {
		query += ` ORDER BY created_at, seq`
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	list := []*entity.StockMovement{}
	for rows.Next() {
		var (
			m          entity.StockMovement
			action     string
			documentID *string
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &m.WarehouseID, &action, &m.Quantity,
			&m.ActorID, &m.Reference, &documentID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.Action = entity.MovementAction(action)
		m.DocumentID = deref(documentID)
		list = append(list, &m)
	}
	return list, rows.Err()
}

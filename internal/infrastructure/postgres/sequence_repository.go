package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador por (prefijo, día) en document_sequences.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// NextValue incrementa y devuelve el contador en una sola sentencia; el upsert bloquea la fila,
// así que llamadas concurrentes nunca obtienen el mismo valor.
func (r *SequenceRepo) NextValue(ctx context.Context, prefix string, day time.Time) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_sequences (prefix, day, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, day) DO UPDATE SET value = document_sequences.value + 1
		RETURNING value`, prefix, day).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", prefix, err)
	}
	return n, nil
}

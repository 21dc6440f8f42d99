package repository

import (
	"context"
	"time"
)

// SequenceRepository contador atómico por (prefijo, día) para numerar documentos.
type SequenceRepository interface {
	NextValue(ctx context.Context, prefix string, day time.Time) (int64, error)
}

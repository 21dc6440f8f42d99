// Package numbering genera los números legibles de los documentos.
package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

// Generator produce números <PREFIJO><AAAAMMDD>-<secuencia 6 dígitos>.
// La secuencia es un contador atómico por (prefijo, día), así que dos llamadas
// en el mismo instante nunca obtienen el mismo número.
type Generator struct {
	seq repository.SequenceRepository
	now func() time.Time
}

// NewGenerator crea el generador. now nil usa time.Now.
func NewGenerator(seq repository.SequenceRepository, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{seq: seq, now: now}
}

// Next devuelve el siguiente número para prefix.
func (g *Generator) Next(ctx context.Context, prefix string) (string, error) {
	day := g.now().UTC().Truncate(24 * time.Hour)
	n, err := g.seq.NextValue(ctx, prefix, day)
	if err != nil {
		return "", fmt.Errorf("secuencia %s: %w", prefix, err)
	}
	return Format(prefix, day, n), nil
}

// Format arma el número a partir de sus partes.
func Format(prefix string, day time.Time, n int64) string {
	return fmt.Sprintf("%s%s-%06d", prefix, day.Format("20060102"), n)
}

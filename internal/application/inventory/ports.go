package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ningún cambio queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		docs repository.DocumentRepository,
		ledger repository.InventoryRepository,
		journal repository.StockMovementRepository,
	) error) error
}

// NumberGenerator asigna números de documento únicos por prefijo.
type NumberGenerator interface {
	Next(ctx context.Context, prefix string) (string, error)
}

// TransitionObserver recibe los eventos del motor (métricas).
type TransitionObserver interface {
	DocumentCreated(kind entity.DocumentKind)
	TransitionObserved(kind entity.DocumentKind, to entity.DocumentStatus, outcome string, elapsed time.Duration)
	MovementsRecorded(action entity.MovementAction, n int)
}

// Resultados informados al observador.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected" // error de negocio
	OutcomeError    = "error"    // falla de almacenamiento
)

type noopObserver struct{}

func (noopObserver) DocumentCreated(entity.DocumentKind) {}
func (noopObserver) TransitionObserved(entity.DocumentKind, entity.DocumentStatus, string, time.Duration) {
}
func (noopObserver) MovementsRecorded(entity.MovementAction, int) {}

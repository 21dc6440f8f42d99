package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/lifecycle"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

// maxNumberAttempts reintentos de creación cuando el número choca con uno existente.
const maxNumberAttempts = 3

// Deps dependencias del motor. Observer, Now y TxTimeout son opcionales.
type Deps struct {
	Tx         TxRunner
	Documents  repository.DocumentRepository
	Ledger     repository.InventoryRepository
	Journal    repository.StockMovementRepository
	Products   repository.ProductRepository
	Warehouses repository.WarehouseRepository
	Numbers    NumberGenerator
	Observer   TransitionObserver
	Logger     zerolog.Logger
	TxTimeout  time.Duration
	Now        func() time.Time
}

// Engine motor del ciclo de vida de documentos y del libro de inventario.
// Todas las transiciones que tocan el libro pasan por un único camino transaccional:
// relectura con bloqueo del documento, bloqueo de filas del libro en orden ascendente de clave,
// verificación completa de stock y luego aplicación de deltas, diario y estado.
type Engine struct {
	tx         TxRunner
	docs       repository.DocumentRepository
	ledger     repository.InventoryRepository
	journal    repository.StockMovementRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	numbers    NumberGenerator
	observer   TransitionObserver
	log        zerolog.Logger
	txTimeout  time.Duration
	now        func() time.Time
}

// NewEngine construye el motor.
func NewEngine(d Deps) *Engine {
	e := &Engine{
		tx:         d.Tx,
		docs:       d.Documents,
		ledger:     d.Ledger,
		journal:    d.Journal,
		products:   d.Products,
		warehouses: d.Warehouses,
		numbers:    d.Numbers,
		observer:   d.Observer,
		log:        d.Logger.With().Str("component", "engine").Logger(),
		txTimeout:  d.TxTimeout,
		now:        d.Now,
	}
	if e.observer == nil {
		e.observer = noopObserver{}
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e
}

// Advance lleva el documento a target. Si target es el estado que toca el libro,
// sigue exactamente el mismo camino atómico que Execute/Confirm.
func (e *Engine) Advance(ctx context.Context, documentID string, target entity.DocumentStatus, actorID string) (*entity.Document, error) {
	return e.transition(ctx, documentID, target, actorID)
}

// Execute aplica la transición approved -> executed (entradas, salidas y traslados).
func (e *Engine) Execute(ctx context.Context, documentID, actorID string) (*entity.Document, error) {
	return e.transition(ctx, documentID, entity.StatusExecuted, actorID)
}

// Confirm aplica la transición a confirmed. En conteo físico es la que ajusta el libro.
func (e *Engine) Confirm(ctx context.Context, documentID, actorID string) (*entity.Document, error) {
	return e.transition(ctx, documentID, entity.StatusConfirmed, actorID)
}

func (e *Engine) transition(ctx context.Context, documentID string, target entity.DocumentStatus, actorID string) (*entity.Document, error) {
	start := time.Now()
	observed, err := e.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, e.storageErr("leer documento", err)
	}
	if observed == nil {
		return nil, domain.ErrDocumentNotFound
	}
	kindLog := e.log.With().
		Str("document_id", observed.ID).
		Str("number", observed.Number).
		Str("kind", string(observed.Kind)).
		Str("from", string(observed.Status)).
		Str("to", string(target)).
		Str("actor", actorID).
		Logger()

	result, moved, err := e.runTransition(ctx, observed, target, actorID)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		e.observer.TransitionObserved(observed.Kind, target, OutcomeOK, elapsed)
		for action, n := range countByAction(moved) {
			e.observer.MovementsRecorded(action, n)
		}
		kindLog.Info().Int("movements", len(moved)).Dur("elapsed", elapsed).Msg("transición aplicada")
		return result, nil
	case domain.IsBusinessError(err):
		e.observer.TransitionObserved(observed.Kind, target, OutcomeRejected, elapsed)
		kindLog.Warn().Err(err).Msg("transición rechazada")
		return nil, err
	default:
		e.observer.TransitionObserved(observed.Kind, target, OutcomeError, elapsed)
		kindLog.Error().Err(err).Msg("transición fallida")
		return nil, e.storageErr("transición", err)
	}
}

func (e *Engine) runTransition(ctx context.Context, observed *entity.Document, target entity.DocumentStatus, actorID string) (*entity.Document, []*entity.StockMovement, error) {
	machine, err := lifecycle.For(observed.Kind)
	if err != nil {
		return nil, nil, err
	}
	if err := machine.Validate(observed.Status, target); err != nil {
		return nil, nil, err
	}
	if actorID == "" {
		return nil, nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var (
		result *entity.Document
		moved  []*entity.StockMovement
	)
	err = e.tx.Run(ctx, func(
		docs repository.DocumentRepository,
		ledger repository.InventoryRepository,
		journal repository.StockMovementRepository,
	) error {
		// Relectura bajo bloqueo: el estado observado antes pudo cambiar.
		current, err := docs.GetForUpdate(ctx, observed.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrDocumentNotFound
		}
		if current.Status != observed.Status {
			return &domain.ConcurrentModificationError{
				DocumentID: current.ID,
				Expected:   string(observed.Status),
				Actual:     string(current.Status),
			}
		}
		items, err := docs.ListItems(ctx, current.ID)
		if err != nil {
			return err
		}
		current.Items = items

		now := e.now()
		if machine.TouchesLedger(target) {
			if len(items) == 0 {
				return domain.ErrEmptyItemSet
			}
			moved, err = e.applyEffects(ctx, ledger, journal, machine, current, actorID, now)
			if err != nil {
				return err
			}
		}

		current.Stamp(target, actorID, now)
		ok, err := docs.UpdateStatus(ctx, current, observed.Status)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ConcurrentModificationError{
				DocumentID: current.ID,
				Expected:   string(observed.Status),
				Actual:     "desconocido",
			}
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, moved, nil
}

// applyEffects bloquea, verifica y aplica todos los deltas del documento.
// Ningún delta se aplica hasta que todas las claves pasaron la verificación.
func (e *Engine) applyEffects(
	ctx context.Context,
	ledger repository.InventoryRepository,
	journal repository.StockMovementRepository,
	machine *lifecycle.Machine,
	doc *entity.Document,
	actorID string,
	now time.Time,
) ([]*entity.StockMovement, error) {
	deltas := machine.Effects(doc, doc.Items)
	plans, err := lifecycle.Plan(deltas)
	if err != nil {
		return nil, err
	}

	locked := make(map[entity.InventoryKey]*entity.InventoryRecord, len(plans))
	for _, p := range plans {
		if !p.RequireRecord {
			if _, err := ledger.GetOrCreate(ctx, p.Key); err != nil {
				return nil, err
			}
		}
		rec, err := ledger.LockForUpdate(ctx, p.Key)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, &domain.MissingInventoryRecordError{ProductID: p.Key.ProductID, WarehouseID: p.Key.WarehouseID}
		}
		locked[p.Key] = rec
	}

	for _, p := range plans {
		rec := locked[p.Key]
		after, ok := lifecycle.AddQty(rec.Quantity, p.Net)
		if !ok {
			return nil, fmt.Errorf("%w: el inventario de %s en %s quedaría fuera de rango",
				domain.ErrInvalidInput, p.Key.ProductID, p.Key.WarehouseID)
		}
		if after < 0 {
			return nil, &domain.InsufficientStockError{
				ProductID:   p.Key.ProductID,
				WarehouseID: p.Key.WarehouseID,
				Required:    -p.Net,
				Available:   rec.Quantity,
			}
		}
	}

	for _, p := range plans {
		if p.Net == 0 {
			continue
		}
		if _, err := ledger.Adjust(ctx, p.Key, p.Net); err != nil {
			return nil, err
		}
	}

	reference := fmt.Sprintf("%s - %s", doc.Kind.Label(), doc.Number)
	moved := make([]*entity.StockMovement, 0, len(deltas))
	for _, d := range deltas {
		if !d.Journal {
			continue
		}
		mv := &entity.StockMovement{
			ID:          newID(),
			ProductID:   d.Key.ProductID,
			WarehouseID: d.Key.WarehouseID,
			Action:      d.Action,
			Quantity:    d.Qty,
			ActorID:     actorID,
			Reference:   reference,
			DocumentID:  doc.ID,
			CreatedAt:   now,
		}
		if err := journal.Append(ctx, mv); err != nil {
			return nil, err
		}
		moved = append(moved, mv)
	}
	return moved, nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.txTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.txTimeout)
}

// storageErr envuelve fallas de infraestructura; los errores de negocio pasan intactos.
func (e *Engine) storageErr(op string, err error) error {
	if err == nil || domain.IsBusinessError(err) {
		return err
	}
	var se *domain.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StorageError{Op: op, Err: err}
}

func countByAction(moved []*entity.StockMovement) map[entity.MovementAction]int {
	out := make(map[entity.MovementAction]int)
	for _, m := range moved {
		out[m.Action]++
	}
	return out
}

// Package memory implementa los repositorios en memoria (STORE_DRIVER=memory y pruebas).
// Las transacciones se serializan y trabajan sobre una copia del estado que solo se publica al confirmar,
// así un error o una cancelación no dejan cambios visibles.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

type state struct {
	products   map[string]entity.Product
	warehouses map[string]entity.Warehouse
	documents  map[string]entity.Document
	numbers    map[string]string // número -> id
	items      map[string][]entity.DocumentItem
	inventory  map[entity.InventoryKey]entity.InventoryRecord
	movements  []entity.StockMovement
	sequences  map[string]int64
}

func newState() *state {
	return &state{
		products:   map[string]entity.Product{},
		warehouses: map[string]entity.Warehouse{},
		documents:  map[string]entity.Document{},
		numbers:    map[string]string{},
		items:      map[string][]entity.DocumentItem{},
		inventory:  map[entity.InventoryKey]entity.InventoryRecord{},
		sequences:  map[string]int64{},
	}
}

// clone copia las tablas. El diario no se copia: solo admite append, la copia comparte el arreglo
// y el estado publicado no lee más allá de su longitud. Si la transacción se descarta, la siguiente
// reescribe esas posiciones.
func (s *state) clone() *state {
	c := &state{
		products:   cloneMap(s.products),
		warehouses: cloneMap(s.warehouses),
		documents:  cloneMap(s.documents),
		numbers:    cloneMap(s.numbers),
		items:      make(map[string][]entity.DocumentItem, len(s.items)),
		inventory:  cloneMap(s.inventory),
		movements:  s.movements,
		sequences:  cloneMap(s.sequences),
	}
	for k, v := range s.items {
		c.items[k] = append([]entity.DocumentItem(nil), v...)
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store estado compartido. Una sola transacción de escritura a la vez; las lecturas nunca esperan.
type Store struct {
	sem chan struct{}
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		sem: make(chan struct{}, 1),
		st:  newState(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// atomically ejecuta fn sobre una copia y la publica solo si fn y ctx terminan sin error.
func (s *Store) atomically(ctx context.Context, fn func(*state) error) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()

	if err := fn(work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(
	docs repository.DocumentRepository,
	ledger repository.InventoryRepository,
	journal repository.StockMovementRepository,
) error) error {
	return s.atomically(ctx, func(work *state) error {
		sc := scope{store: s, tx: work}
		return fn(&documentRepo{newDocumentCrud(sc)}, &inventoryRepo{sc}, &movementRepo{sc})
	})
}

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() repository.ProductRepository {
	return &productRepo{newProductCrud(scope{store: s})}
}

// Warehouses repositorio de bodegas fuera de transacción.
func (s *Store) Warehouses() repository.WarehouseRepository {
	return &warehouseRepo{newWarehouseCrud(scope{store: s})}
}

// Documents repositorio de documentos fuera de transacción.
func (s *Store) Documents() repository.DocumentRepository {
	return &documentRepo{newDocumentCrud(scope{store: s})}
}

// Inventory libro de inventario fuera de transacción.
func (s *Store) Inventory() repository.InventoryRepository {
	return &inventoryRepo{scope{store: s}}
}

// Movements diario de movimientos fuera de transacción.
func (s *Store) Movements() repository.StockMovementRepository {
	return &movementRepo{scope{store: s}}
}

// Sequences contador de numeración.
func (s *Store) Sequences() repository.SequenceRepository {
	return &sequenceRepo{scope{store: s}}
}

// scope decide si una operación corre sobre la copia de una transacción o en autocommit.
type scope struct {
	store *Store
	tx    *state
}

func (sc scope) read(fn func(*state) error) error {
	if sc.tx != nil {
		return fn(sc.tx)
	}
	sc.store.mu.RLock()
	defer sc.store.mu.RUnlock()
	return fn(sc.store.st)
}

func (sc scope) write(ctx context.Context, fn func(*state) error) error {
	if sc.tx != nil {
		return fn(sc.tx)
	}
	return sc.store.atomically(ctx, fn)
}

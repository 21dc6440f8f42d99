package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/application/inventory"
	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/numbering"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
	"github.com/jhoicas/Bodega-api/internal/infrastructure/memory"
)

const (
	actor = "user-bodega"
	w1    = "W1"
	w2    = "W2"
	wOff  = "W-OFF"
	p1    = "P1"
	p2    = "P2"
	pOff  = "P-OFF"
)

type fixture struct {
	store  *memory.Store
	engine *inventory.Engine
}

func newFixture(t *testing.T, opts ...func(*inventory.Deps)) *fixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	for _, w := range []entity.Warehouse{
		{ID: w1, Code: "B1", IsActive: true},
		{ID: w2, Code: "B2", IsActive: true},
		{ID: wOff, Code: "B9", IsActive: false},
	} {
		w := w
		require.NoError(t, store.Warehouses().Create(ctx, &w))
	}
	for _, p := range []entity.Product{
		{ID: p1, SKU: "SKU-1", IsActive: true},
		{ID: p2, SKU: "SKU-2", IsActive: true},
		{ID: pOff, SKU: "SKU-9", IsActive: false},
	} {
		p := p
		require.NoError(t, store.Products().Create(ctx, &p))
	}

	deps := inventory.Deps{
		Tx:         store,
		Documents:  store.Documents(),
		Ledger:     store.Inventory(),
		Journal:    store.Movements(),
		Products:   store.Products(),
		Warehouses: store.Warehouses(),
		Numbers:    numbering.NewGenerator(store.Sequences(), nil),
		Logger:     zerolog.Nop(),
		TxTimeout:  5 * time.Second,
	}
	for _, o := range opts {
		o(&deps)
	}
	return &fixture{store: store, engine: inventory.NewEngine(deps)}
}

func (f *fixture) create(t *testing.T, kind entity.DocumentKind, in dto.CreateDocumentInput) *entity.Document {
	t.Helper()
	doc, err := f.engine.CreateDocument(context.Background(), kind, in, actor)
	require.NoError(t, err)
	return doc
}

// approveAndExecute lleva un documento created hasta executed.
func (f *fixture) approveAndExecute(t *testing.T, id string) (*entity.Document, error) {
	t.Helper()
	_, err := f.engine.Advance(context.Background(), id, entity.StatusApproved, actor)
	require.NoError(t, err)
	return f.engine.Execute(context.Background(), id, actor)
}

func (f *fixture) stock(t *testing.T, product, warehouse string, qty int64) {
	t.Helper()
	doc := f.create(t, entity.KindInbound, dto.CreateDocumentInput{
		WarehouseID: warehouse,
		Items:       []dto.DocumentItemInput{{ProductID: product, Quantity: qty}},
	})
	_, err := f.approveAndExecute(t, doc.ID)
	require.NoError(t, err)
}

func (f *fixture) qty(t *testing.T, product, warehouse string) int64 {
	t.Helper()
	q, err := f.engine.LedgerQuantity(context.Background(), product, warehouse)
	require.NoError(t, err)
	return q
}

func (f *fixture) movements(t *testing.T, product, warehouse string) []*entity.StockMovement {
	t.Helper()
	list, err := f.engine.MovementsForInventory(context.Background(), entity.InventoryKey{ProductID: product, WarehouseID: warehouse})
	require.NoError(t, err)
	return list
}

func items(pairs ...any) []dto.DocumentItemInput {
	out := make([]dto.DocumentItemInput, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, dto.DocumentItemInput{ProductID: pairs[i].(string), Quantity: int64(pairs[i+1].(int))})
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Entrada y salida
// ──────────────────────────────────────────────────────────────────────────────

func TestEntradaLuegoSalida(t *testing.T) {
	f := newFixture(t)

	in := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Partner: "Proveedor SA", Items: items(p1, 10)})
	assert.Equal(t, entity.StatusCreated, in.Status)
	assert.Regexp(t, `^IN\d{8}-\d{6}$`, in.Number)

	executed, err := f.approveAndExecute(t, in.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusExecuted, executed.Status)
	assert.Equal(t, actor, executed.ExecutedBy)
	require.NotNil(t, executed.ExecutedAt)
	assert.Equal(t, int64(10), f.qty(t, p1, w1))

	mv := f.movements(t, p1, w1)
	require.Len(t, mv, 1)
	assert.Equal(t, entity.MovementIn, mv[0].Action)
	assert.Equal(t, int64(10), mv[0].Quantity)
	assert.Equal(t, "Entrada - "+in.Number, mv[0].Reference)

	out := f.create(t, entity.KindOutbound, dto.CreateDocumentInput{WarehouseID: w1, OutboundType: "venta", Items: items(p1, 4)})
	_, err = f.approveAndExecute(t, out.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), f.qty(t, p1, w1))

	mv = f.movements(t, p1, w1)
	require.Len(t, mv, 2)
	assert.Equal(t, entity.MovementOut, mv[1].Action)
	assert.Equal(t, int64(-4), mv[1].Quantity)
	assert.Equal(t, out.ID, mv[1].DocumentID)
}

func TestSalida_SinDebitoParcial(t *testing.T) {
	f := newFixture(t)
	f.stock(t, p1, w1, 20)
	f.stock(t, p2, w1, 3)

	out := f.create(t, entity.KindOutbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 5, p2, 1000, p1, 1)})
	_, err := f.approveAndExecute(t, out.ID)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, p2, insufficient.ProductID)
	assert.Equal(t, int64(1000), insufficient.Required)
	assert.Equal(t, int64(3), insufficient.Available)

	assert.Equal(t, int64(20), f.qty(t, p1, w1), "P1 no debe debitarse")
	assert.Equal(t, int64(3), f.qty(t, p2, w1))
	got, _ := f.engine.GetDocument(context.Background(), out.ID)
	assert.Equal(t, entity.StatusApproved, got.Status, "el estado no cambia si la transición falla")
	mv, _ := f.engine.MovementsForDocument(context.Background(), out.ID)
	assert.Empty(t, mv)
}

func TestSalida_SinRegistroDeInventario(t *testing.T) {
	f := newFixture(t)
	out := f.create(t, entity.KindOutbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)})
	_, err := f.approveAndExecute(t, out.ID)

	var missing *domain.MissingInventoryRecordError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, p1, missing.ProductID)
	assert.Equal(t, w1, missing.WarehouseID)
}

// TestSalidasConcurrentes dos ejecuciones de 6 contra un saldo de 10.
func TestSalidasConcurrentes(t *testing.T) {
	f := newFixture(t)
	f.stock(t, p1, w1, 10)

	var ids []string
	for i := 0; i < 2; i++ {
		doc := f.create(t, entity.KindOutbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 6)})
		_, err := f.engine.Advance(context.Background(), doc.ID, entity.StatusApproved, actor)
		require.NoError(t, err)
		ids = append(ids, doc.ID)
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.engine.Execute(context.Background(), id, actor)
		}(i, id)
	}
	wg.Wait()

	ok, failed := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		failed++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, int64(4), f.qty(t, p1, w1))
	assert.Len(t, f.movements(t, p1, w1), 2, "una entrada y una sola salida")
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestTraslado_Conserva(t *testing.T) {
	f := newFixture(t)
	f.stock(t, p1, w1, 10)
	f.stock(t, p2, w1, 5)

	srcBefore, tgtBefore := f.qty(t, p1, w1)+f.qty(t, p2, w1), f.qty(t, p1, w2)+f.qty(t, p2, w2)
	trf := f.create(t, entity.KindTransfer, dto.CreateDocumentInput{WarehouseID: w1, TargetWarehouseID: w2, Items: items(p1, 7, p2, 5)})
	_, err := f.approveAndExecute(t, trf.ID)
	require.NoError(t, err)
	srcAfter, tgtAfter := f.qty(t, p1, w1)+f.qty(t, p2, w1), f.qty(t, p1, w2)+f.qty(t, p2, w2)

	assert.Equal(t, int64(12), srcBefore-srcAfter)
	assert.Equal(t, srcBefore-srcAfter, tgtAfter-tgtBefore)
	assert.Equal(t, int64(7), f.qty(t, p1, w2), "el registro destino se crea al vuelo")

	mv, _ := f.engine.MovementsForDocument(context.Background(), trf.ID)
	require.Len(t, mv, 2, "un movimiento por línea, lado origen")
	for _, m := range mv {
		assert.Equal(t, entity.MovementTransfer, m.Action)
		assert.Equal(t, w1, m.WarehouseID)
		assert.Less(t, m.Quantity, int64(0))
	}
}

func TestTraslado_StockInsuficienteEnOrigen(t *testing.T) {
	f := newFixture(t)
	f.stock(t, p1, w1, 2)

	trf := f.create(t, entity.KindTransfer, dto.CreateDocumentInput{WarehouseID: w1, TargetWarehouseID: w2, Items: items(p1, 3)})
	_, err := f.approveAndExecute(t, trf.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(2), f.qty(t, p1, w1))

	rec, _ := f.store.Inventory().Get(context.Background(), entity.InventoryKey{ProductID: p1, WarehouseID: w2})
	assert.Nil(t, rec, "el destino creado dentro de la tx fallida no queda")
}

func TestTrasladosOpuestosConcurrentes(t *testing.T) {
	f := newFixture(t)
	f.stock(t, p1, w1, 50)
	f.stock(t, p1, w2, 50)

	var ids []string
	for i := 0; i < 10; i++ {
		src, tgt := w1, w2
		if i%2 == 1 {
			src, tgt = w2, w1
		}
		doc := f.create(t, entity.KindTransfer, dto.CreateDocumentInput{WarehouseID: src, TargetWarehouseID: tgt, Items: items(p1, 3)})
		_, err := f.engine.Advance(context.Background(), doc.ID, entity.StatusApproved, actor)
		require.NoError(t, err)
		ids = append(ids, doc.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.engine.Execute(context.Background(), id, actor)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int64(100), f.qty(t, p1, w1)+f.qty(t, p1, w2))
	assert.Equal(t, int64(50), f.qty(t, p1, w1))
}

// ──────────────────────────────────────────────────────────────────────────────
// Conteo físico
// ──────────────────────────────────────────────────────────────────────────────

func TestConteoFisico_AjustaDiferencia(t *testing.T) {
	f := newFixture(t)
	f.stock(t, p1, w1, 10)
	f.stock(t, p2, w1, 4)

	stk := f.create(t, entity.KindStocktaking, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 7, p2, 4)})
	require.Len(t, stk.Items, 2)
	assert.Equal(t, int64(10), stk.Items[0].SystemQty)
	assert.Equal(t, int64(-3), stk.Items[0].DiffQty)
	assert.Equal(t, int64(0), stk.Items[1].DiffQty)

	confirmed, err := f.engine.Confirm(context.Background(), stk.ID, "supervisor")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConfirmed, confirmed.Status)
	assert.Equal(t, "supervisor", confirmed.ConfirmedBy)

	assert.Equal(t, int64(7), f.qty(t, p1, w1))
	assert.Equal(t, int64(4), f.qty(t, p2, w1))
	mv, _ := f.engine.MovementsForDocument(context.Background(), stk.ID)
	require.Len(t, mv, 1, "la línea sin diferencia no genera movimiento")
	assert.Equal(t, entity.MovementAdjust, mv[0].Action)
	assert.Equal(t, int64(-3), mv[0].Quantity)
}

func TestConteoFisico_SinRegistroPrevio(t *testing.T) {
	f := newFixture(t)
	stk := f.create(t, entity.KindStocktaking, dto.CreateDocumentInput{WarehouseID: w2, Items: items(p1, 5)})
	assert.Equal(t, int64(0), stk.Items[0].SystemQty)
	assert.Equal(t, int64(5), stk.Items[0].DiffQty)

	_, err := f.engine.Confirm(context.Background(), stk.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.qty(t, p1, w2))
}

func TestConteoFisico_NoPasaPorAprobado(t *testing.T) {
	f := newFixture(t)
	stk := f.create(t, entity.KindStocktaking, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)})
	_, err := f.engine.Advance(context.Background(), stk.ID, entity.StatusApproved, actor)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestTransicionIlegal_NoCambiaEstado(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)})

	_, err := f.engine.Execute(context.Background(), doc.ID, actor)
	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, "created", illegal.From)
	assert.Equal(t, "executed", illegal.To)

	_, err = f.engine.Advance(context.Background(), doc.ID, entity.StatusCreated, actor)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	got, _ := f.engine.GetDocument(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusCreated, got.Status)
	assert.Zero(t, f.qty(t, p1, w1))
}

func TestReejecucion_RechazadaSinNuevosMovimientos(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 5)})
	_, err := f.approveAndExecute(t, doc.ID)
	require.NoError(t, err)

	_, err = f.engine.Execute(context.Background(), doc.ID, actor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIllegalTransition) || errors.Is(err, domain.ErrConcurrentModification))
	assert.Equal(t, int64(5), f.qty(t, p1, w1))
	assert.Len(t, f.movements(t, p1, w1), 1)
}

func TestAdvance_AEjecutadoUsaElMismoCamino(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 8)})
	_, err := f.engine.Advance(context.Background(), doc.ID, entity.StatusApproved, "jefe")
	require.NoError(t, err)
	got, err := f.engine.Advance(context.Background(), doc.ID, entity.StatusExecuted, actor)
	require.NoError(t, err)

	assert.Equal(t, "jefe", got.ApprovedBy)
	assert.Equal(t, int64(8), f.qty(t, p1, w1))

	confirmed, err := f.engine.Confirm(context.Background(), doc.ID, "auditor")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConfirmed, confirmed.Status)
	assert.Equal(t, int64(8), f.qty(t, p1, w1), "confirmar una entrada ejecutada no vuelve a tocar el libro")
	assert.Len(t, f.movements(t, p1, w1), 1)
}

func TestExecuteConcurrenteMismoDocumento(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 5)})
	_, err := f.engine.Advance(context.Background(), doc.ID, entity.StatusApproved, actor)
	require.NoError(t, err)

	const attempts = 8
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Execute(context.Background(), doc.ID, actor)
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.True(t, domain.IsBusinessError(err), "error inesperado: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok, "solo una ejecución aplica")
	assert.Equal(t, int64(5), f.qty(t, p1, w1), "nunca se aplica dos veces")
}

// staleDocuments devuelve un estado viejo en la lectura previa a la transacción.
type staleDocuments struct {
	repository.DocumentRepository
	status entity.DocumentStatus
}

func (s staleDocuments) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	d, err := s.DocumentRepository.GetByID(ctx, id)
	if d != nil {
		d.Status = s.status
	}
	return d, err
}

func TestRevalidacion_DetectaModificacionConcurrente(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 5)})
	_, err := f.approveAndExecute(t, doc.ID)
	require.NoError(t, err)

	stale := newFixture(t, func(d *inventory.Deps) {
		d.Tx = f.store
		d.Ledger = f.store.Inventory()
		d.Journal = f.store.Movements()
		d.Documents = staleDocuments{DocumentRepository: f.store.Documents(), status: entity.StatusApproved}
	})
	_, err = stale.engine.Execute(context.Background(), doc.ID, actor)

	var cm *domain.ConcurrentModificationError
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, "approved", cm.Expected)
	assert.Equal(t, "executed", cm.Actual)
	assert.Equal(t, int64(5), f.qty(t, p1, w1))
}

func TestDocumentoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Execute(context.Background(), "no-existe", actor)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	_, err = f.engine.GetDocumentByNumber(context.Background(), "IN19990101-000001")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validaciones de creación
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateDocument_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		kind entity.DocumentKind
		in   dto.CreateDocumentInput
		want error
	}{
		{"sin líneas", entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1}, domain.ErrEmptyItemSet},
		{"bodega inexistente", entity.KindInbound, dto.CreateDocumentInput{WarehouseID: "W-X", Items: items(p1, 1)}, domain.ErrUnknownWarehouse},
		{"bodega inactiva", entity.KindOutbound, dto.CreateDocumentInput{WarehouseID: wOff, Items: items(p1, 1)}, domain.ErrInactiveWarehouse},
		{"destino inactivo", entity.KindTransfer, dto.CreateDocumentInput{WarehouseID: w1, TargetWarehouseID: wOff, Items: items(p1, 1)}, domain.ErrInactiveWarehouse},
		{"origen igual a destino", entity.KindTransfer, dto.CreateDocumentInput{WarehouseID: w1, TargetWarehouseID: w1, Items: items(p1, 1)}, domain.ErrInvalidInput},
		{"producto inexistente", entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items("P-X", 1)}, domain.ErrUnknownProduct},
		{"producto inactivo", entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(pOff, 1)}, domain.ErrUnknownProduct},
		{"cantidad cero", entity.KindOutbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 0)}, domain.ErrInvalidInput},
		{"conteo repetido", entity.KindStocktaking, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1, p1, 2)}, domain.ErrInvalidInput},
		{"conteo negativo", entity.KindStocktaking, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, -1)}, domain.ErrInvalidInput},
		{"cantidad sobre el máximo", entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: []dto.DocumentItemInput{{ProductID: p1, Quantity: entity.MaxItemQuantity + 1}}}, domain.ErrInvalidInput},
		{"tipo desconocido", "devolucion", dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.CreateDocument(ctx, tc.kind, tc.in, actor)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	list, err := f.engine.ListDocuments(ctx, dto.DocumentFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "ninguna creación fallida deja documentos")
}

func TestCreateDocument_ConteoConCantidadCero(t *testing.T) {
	f := newFixture(t)
	f.stock(t, p1, w1, 2)
	stk := f.create(t, entity.KindStocktaking, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 0)})
	assert.Equal(t, int64(-2), stk.Items[0].DiffQty)
}

func TestCreateDocument_LineasQueSumadasDesbordanSeRechazan(t *testing.T) {
	f := newFixture(t)
	in := dto.CreateDocumentInput{WarehouseID: w1, Items: []dto.DocumentItemInput{
		{ProductID: p1, Quantity: math.MaxInt64},
		{ProductID: p1, Quantity: math.MaxInt64},
		{ProductID: p1, Quantity: 2},
	}}

	_, err := f.engine.CreateDocument(context.Background(), entity.KindInbound, in, actor)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(0), f.qty(t, p1, w1))
	assert.Empty(t, f.movements(t, p1, w1))
}

func TestEntrada_InventarioFueraDeRangoNoSeAplica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := entity.InventoryKey{ProductID: p1, WarehouseID: w1}
	start := int64(math.MaxInt64 - 5)
	require.NoError(t, f.store.Run(ctx, func(_ repository.DocumentRepository, ledger repository.InventoryRepository, _ repository.StockMovementRepository) error {
		if _, err := ledger.GetOrCreate(ctx, key); err != nil {
			return err
		}
		_, err := ledger.Adjust(ctx, key, start)
		return err
	}))
	doc := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 10)})

	_, err := f.approveAndExecute(t, doc.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	var insufficient *domain.InsufficientStockError
	assert.False(t, errors.As(err, &insufficient), "un desborde no es falta de stock")
	assert.Equal(t, start, f.qty(t, p1, w1))
	assert.Empty(t, f.movements(t, p1, w1))
	got, err := f.engine.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)
}

// blockingNumbers espera a que venza el contexto.
type blockingNumbers struct{}

func (blockingNumbers) Next(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestCreateDocument_RespetaTimeoutDeTransaccion(t *testing.T) {
	f := newFixture(t, func(d *inventory.Deps) {
		d.Numbers = blockingNumbers{}
		d.TxTimeout = 20 * time.Millisecond
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.engine.CreateDocument(context.Background(), entity.KindInbound,
			dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)}, actor)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		var se *domain.StorageError
		assert.ErrorAs(t, err, &se)
	case <-time.After(2 * time.Second):
		t.Fatal("la creación no respetó el timeout de transacción")
	}
}

// fixedNumbers devuelve la lista de números en orden.
type fixedNumbers struct {
	mu   sync.Mutex
	list []string
}

func (n *fixedNumbers) Next(context.Context, string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.list) == 0 {
		return "", errors.New("sin números")
	}
	v := n.list[0]
	n.list = n.list[1:]
	return v, nil
}

func TestCreateDocument_ReintentaNumeroRepetido(t *testing.T) {
	numbers := &fixedNumbers{list: []string{"IN-1", "IN-1", "IN-1", "IN-2"}}
	f := newFixture(t, func(d *inventory.Deps) { d.Numbers = numbers })

	first := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)})
	assert.Equal(t, "IN-1", first.Number)

	second := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)})
	assert.Equal(t, "IN-2", second.Number, "tras dos choques toma el siguiente número")
}

func TestCreateDocument_AgotaReintentos(t *testing.T) {
	numbers := &fixedNumbers{list: []string{"IN-1", "IN-1", "IN-1", "IN-1"}}
	f := newFixture(t, func(d *inventory.Deps) { d.Numbers = numbers })
	f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)})

	_, err := f.engine.CreateDocument(context.Background(), entity.KindInbound,
		dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)}, actor)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas y observador
// ──────────────────────────────────────────────────────────────────────────────

func TestListDocuments_Filtros(t *testing.T) {
	f := newFixture(t)
	f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)})
	f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w2, Items: items(p1, 1)})
	f.create(t, entity.KindTransfer, dto.CreateDocumentInput{WarehouseID: w2, TargetWarehouseID: w1, Items: items(p1, 1)})

	ctx := context.Background()
	byKind, err := f.engine.ListDocuments(ctx, dto.DocumentFilter{Kind: "inbound"})
	require.NoError(t, err)
	assert.Len(t, byKind, 2)

	byWarehouse, _ := f.engine.ListDocuments(ctx, dto.DocumentFilter{WarehouseID: w1})
	assert.Len(t, byWarehouse, 2)

	paged, _ := f.engine.ListDocuments(ctx, dto.DocumentFilter{PageRequest: dto.PageRequest{Limit: 1}})
	assert.Len(t, paged, 1)

	_, err = f.engine.ListDocuments(ctx, dto.DocumentFilter{Kind: "otro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMovementsSince(t *testing.T) {
	f := newFixture(t)
	f.stock(t, p1, w1, 3)
	cut := time.Now().UTC().Add(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	f.stock(t, p2, w1, 4)

	all, err := f.engine.MovementsSince(context.Background(), time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	recent, _ := f.engine.MovementsSince(context.Background(), cut, 0)
	require.Len(t, recent, 1)
	assert.Equal(t, p2, recent[0].ProductID)

	byActor, _ := f.engine.MovementsForActor(context.Background(), actor)
	assert.Len(t, byActor, 2)

	stock, _ := f.engine.InventoryByWarehouse(context.Background(), w1)
	assert.Len(t, stock, 2)
	perProduct, _ := f.engine.InventoryByProduct(context.Background(), p1)
	assert.Len(t, perProduct, 1)
}

type recordingObserver struct {
	mu       sync.Mutex
	created  int
	outcomes []string
	moved    map[entity.MovementAction]int
}

func (o *recordingObserver) DocumentCreated(entity.DocumentKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created++
}

func (o *recordingObserver) TransitionObserved(kind entity.DocumentKind, to entity.DocumentStatus, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, fmt.Sprintf("%s:%s:%s", kind, to, outcome))
}

func (o *recordingObserver) MovementsRecorded(action entity.MovementAction, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.moved[action] += n
}

func TestObservador_RecibeEventos(t *testing.T) {
	obs := &recordingObserver{moved: map[entity.MovementAction]int{}}
	f := newFixture(t, func(d *inventory.Deps) { d.Observer = obs })

	doc := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 2, p2, 1)})
	_, err := f.approveAndExecute(t, doc.ID)
	require.NoError(t, err)
	_, err = f.engine.Execute(context.Background(), doc.ID, actor)
	require.Error(t, err)

	assert.Equal(t, 1, obs.created)
	assert.Equal(t, []string{
		"inbound:approved:ok",
		"inbound:executed:ok",
		"inbound:executed:rejected",
	}, obs.outcomes)
	assert.Equal(t, 2, obs.moved[entity.MovementIn])
}

// failingTx simula una caída de la base de datos.
type failingTx struct{}

func (failingTx) Run(context.Context, func(repository.DocumentRepository, repository.InventoryRepository, repository.StockMovementRepository) error) error {
	return errors.New("conexión rechazada")
}

func TestFallaDeAlmacenamiento_EsStorageError(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, entity.KindInbound, dto.CreateDocumentInput{WarehouseID: w1, Items: items(p1, 1)})

	broken := newFixture(t, func(d *inventory.Deps) {
		d.Tx = failingTx{}
		d.Documents = f.store.Documents()
	})
	_, err := broken.engine.Advance(context.Background(), doc.ID, entity.StatusApproved, actor)

	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.False(t, domain.IsBusinessError(err))
}

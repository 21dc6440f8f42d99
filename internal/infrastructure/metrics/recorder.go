package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/Bodega-api/internal/application/inventory"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

const namespace = "bodega"

var _ inventory.TransitionObserver = (*Recorder)(nil)

// Recorder publica en Prometheus los eventos del motor de documentos.
type Recorder struct {
	created     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	movements   *prometheus.CounterVec
}

// NewRecorder registra las métricas en reg (prometheus.DefaultRegisterer si es nil).
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		created: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_created_total",
			Help:      "Documentos creados por tipo.",
		}, []string{"kind"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_transitions_total",
			Help:      "Transiciones de estado intentadas por tipo, destino y resultado.",
		}, []string{"kind", "to", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_transition_duration_seconds",
			Help:      "Duración de las transiciones de estado.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"kind", "to"}),
		movements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_total",
			Help:      "Movimientos escritos en el diario por acción.",
		}, []string{"action"}),
	}
}

func (r *Recorder) DocumentCreated(kind entity.DocumentKind) {
	r.created.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) TransitionObserved(kind entity.DocumentKind, to entity.DocumentStatus, outcome string, elapsed time.Duration) {
	r.transitions.WithLabelValues(string(kind), string(to), outcome).Inc()
	r.duration.WithLabelValues(string(kind), string(to)).Observe(elapsed.Seconds())
}

func (r *Recorder) MovementsRecorded(action entity.MovementAction, n int) {
	if n <= 0 {
		return
	}
	r.movements.WithLabelValues(string(action)).Add(float64(n))
}

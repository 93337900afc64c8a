package helpers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LifecycleOperations cuenta las operaciones del coordinador por resultado.
	LifecycleOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "lifecycle",
		Name:      "operations_total",
		Help:      "Operaciones del coordinador de ciclo de vida por resultado.",
	}, []string{"operation", "result"})

	// LifecycleConflictRetries cuenta los reintentos por revisión desactualizada.
	LifecycleConflictRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "lifecycle",
		Name:      "conflict_retries_total",
		Help:      "Reintentos por conflicto de revisión.",
	}, []string{"operation"})

	// PostingLockWait mide la espera para obtener el lock de un posting.
	PostingLockWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Subsystem: "lifecycle",
		Name:      "posting_lock_wait_seconds",
		Help:      "Tiempo de espera del lock por posting.",
		Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5},
	})

	// EventsPublished cuenta la entrega de eventos a los suscriptores externos.
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Eventos publicados por tipo y resultado.",
	}, []string{"type", "result"})

	// RateLimited cuenta las peticiones rechazadas por el limitador.
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "gateway",
		Name:      "rate_limited_total",
		Help:      "Peticiones rechazadas por exceder la tasa permitida.",
	})
)

func init() {
	prometheus.MustRegister(LifecycleOperations, LifecycleConflictRetries, PostingLockWait, EventsPublished, RateLimited)
}

// ObserveLockWait registra la espera desde start.
func ObserveLockWait(start time.Time) {
	PostingLockWait.Observe(time.Since(start).Seconds())
}

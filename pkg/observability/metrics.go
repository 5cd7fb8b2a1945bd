package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tapestry/pkg/domain"
)

const namespace = "tapestry"

// Metrics holds the Prometheus collectors fed by the runtime's lifecycle hooks.
type Metrics struct {
	Advances         *prometheus.CounterVec
	DestinationVisit *prometheus.CounterVec
	Blocked          *prometheus.CounterVec
	ExpressionErrors *prometheus.CounterVec
	OpenRoutes       *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Advances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advances_total",
			Help:      "Route submissions that appended a log entry.",
		}, []string{"world", "outcome"}),
		DestinationVisit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "destination_visits_total",
			Help:      "Entries appended per destination Event.",
		}, []string{"world", "destination"}),
		Blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_total",
			Help:      "Route resolutions that found no open Path.",
		}, []string{"world"}),
		ExpressionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expression_errors_total",
			Help:      "Passage spans rendered as the error sentinel.",
		}, []string{"world"}),
		OpenRoutes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "open_routes",
			Help:      "Open Paths per route resolution.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		}, []string{"world"}),
	}

	for _, c := range []prometheus.Collector{m.Advances, m.DestinationVisit, m.Blocked, m.ExpressionErrors, m.OpenRoutes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAdvance: func(_ context.Context, e *domain.AdvanceEvent) {
			m.Advances.WithLabelValues(e.WorldID, string(e.Outcome)).Inc()
			m.DestinationVisit.WithLabelValues(e.WorldID, e.Destination).Inc()
		},
		OnRouteResolved: func(_ context.Context, e *domain.RouteEvent) {
			m.OpenRoutes.WithLabelValues(e.WorldID).Observe(float64(e.Open))
		},
		OnBlocked: func(_ context.Context, e *domain.RouteEvent) {
			m.Blocked.WithLabelValues(e.WorldID).Inc()
			m.OpenRoutes.WithLabelValues(e.WorldID).Observe(0)
		},
		OnExpressionError: func(_ context.Context, e *domain.ExpressionEvent) {
			m.ExpressionErrors.WithLabelValues(e.WorldID).Inc()
		},
	}
}

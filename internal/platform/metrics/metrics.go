// Package metrics holds the Prometheus instruments for repository access.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Repository tracks repository operations per entity and operation.
type Repository struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewRepository registers the instruments on reg. A nil reg registers on
// prometheus.DefaultRegisterer; registering twice on one registry panics.
func NewRepository(reg prometheus.Registerer) *Repository {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Repository{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "librarian_repository_operations_total",
			Help: "Repository operations by entity, operation and result",
		}, []string{"entity", "operation", "result"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "librarian_repository_operation_duration_seconds",
			Help:    "Duration of repository operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity", "operation"}),
	}
}

// Observe records one finished operation. Call with time.Now() taken at the
// start of the operation. A nil receiver records nothing.
func (m *Repository) Observe(entity, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.Operations.WithLabelValues(entity, operation, result).Inc()
	m.Duration.WithLabelValues(entity, operation).Observe(time.Since(start).Seconds())
}

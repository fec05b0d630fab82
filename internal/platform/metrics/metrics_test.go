package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCountsByResult(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := NewRepository(reg)

	start := time.Now()
	m.Observe("account", "get", start, nil)
	m.Observe("account", "get", start, nil)
	m.Observe("account", "get", start, errors.New("not found"))
	m.Observe("book", "add", start, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("account", "get", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("account", "get", ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("book", "add", ResultSuccess)))

	count, err := testutil.GatherAndCount(reg, "librarian_repository_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one histogram series per entity and operation")
}

func TestNilRepositoryIsNoop(t *testing.T) {
	t.Parallel()
	var m *Repository
	assert.NotPanics(t, func() { m.Observe("account", "get", time.Now(), nil) })
}

func TestDoubleRegistrationPanics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	NewRepository(reg)
	assert.Panics(t, func() { NewRepository(reg) })
}

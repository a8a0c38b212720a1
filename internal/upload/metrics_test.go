package upload

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.SetPending(4)
	assert.Equal(t, float64(4), testutil.ToFloat64(m.pendingRecords))
	m.SetPending(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.pendingRecords))

	m.ObserveAttempt(nil)
	m.ObserveAttempt(nil)
	m.ObserveAttempt(errors.New("boom"))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.uploadAttempts.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.uploadAttempts.WithLabelValues("error")))
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

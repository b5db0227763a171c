package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()
	require.NotNil(t, m)

	m.CounterSyncEnqueued.WithLabelValues("workouts", "create").Inc()
	m.CounterSyncEnqueued.WithLabelValues("workouts", "create").Inc()
	m.GaugeSyncPending.Set(2)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CounterSyncEnqueued.WithLabelValues("workouts", "create")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.GaugeSyncPending))

	count, err := testutil.GatherAndCount(reg, "rerack_test_sync_enqueued", "rerack_test_sync_pending")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSetupPrometheus(t *testing.T) {
	extra := prometheus.NewGauge(prometheus.GaugeOpts{Name: "extra_collector"})
	promRegistry := SetupPrometheus(extra)
	require.NotNil(t, promRegistry)

	m := NewManager("rerack", "main", promRegistry)
	m.GaugeLifeSignal.Set(1)

	count, err := testutil.GatherAndCount(promRegistry, "extra_collector", "rerack_main_life_signal")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

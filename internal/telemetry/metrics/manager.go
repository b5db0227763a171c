package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter
	CounterSyncEnqueued       *prometheus.CounterVec
	CounterSyncApplied        prometheus.Counter
	CounterSyncFailed         prometheus.Counter
	CounterSyncDeadLettered   prometheus.Counter
	CounterRemoteFallbacks    *prometheus.CounterVec
	CounterRefCacheLookups    *prometheus.CounterVec
	CounterRefCacheEvictions  prometheus.Counter
	CounterMatcherResolutions *prometheus.CounterVec
	CounterAIRetries          prometheus.Counter

	// gauges
	GaugeRequests     prometheus.Gauge
	GaugeLifeSignal   prometheus.Gauge
	GaugeSyncPending  prometheus.Gauge
	GaugeConnectivity prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
	HistogramDrainDuration   prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("rerack", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("rerack", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterSyncEnqueued := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sync_enqueued",
		Help:      "The total number of operations put into the sync queue",
	}, []string{"collection", "kind"})
	counterSyncApplied := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sync_applied",
		Help:      "The total number of queued operations applied to the remote store",
	})
	counterSyncFailed := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sync_failed",
		Help:      "The total number of failed replay attempts",
	})
	counterSyncDeadLettered := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sync_dead_lettered",
		Help:      "The total number of queued operations moved to the dead letter collection",
	})
	counterRemoteFallbacks := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "remote_fallbacks",
		Help:      "The total number of remote calls that fell back to the local store",
	}, []string{"op"})
	counterRefCacheLookups := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "refcache_lookups",
		Help:      "Reference cache lookups by kind and result",
	}, []string{"kind", "result"})
	counterRefCacheEvictions := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "refcache_evictions",
		Help:      "The total number of expired reference cache entries removed",
	})
	counterMatcherResolutions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "matcher_resolutions",
		Help:      "Exercise name resolutions by outcome",
	}, []string{"outcome"})
	counterAIRetries := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ai_retries",
		Help:      "The total number of rate limited AI generation retries",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugeSyncPending := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sync_pending",
		Help:      "Number of operations waiting in the sync queue",
	})
	gaugeConnectivity := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "connectivity",
		Help:      "1 when the remote store is reachable, 0 otherwise",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histogramDrainDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sync_drain_duration_seconds",
		Help:      "Duration of a single sync queue drain in seconds",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
	})

	return &Manager{
		CounterRequests:           counterRequests,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		CounterSyncEnqueued:       counterSyncEnqueued,
		CounterSyncApplied:        counterSyncApplied,
		CounterSyncFailed:         counterSyncFailed,
		CounterSyncDeadLettered:   counterSyncDeadLettered,
		CounterRemoteFallbacks:    counterRemoteFallbacks,
		CounterRefCacheLookups:    counterRefCacheLookups,
		CounterRefCacheEvictions:  counterRefCacheEvictions,
		CounterMatcherResolutions: counterMatcherResolutions,
		CounterAIRetries:          counterAIRetries,
		GaugeRequests:             gaugeRequests,
		GaugeLifeSignal:           gaugeLifeSignal,
		GaugeSyncPending:          gaugeSyncPending,
		GaugeConnectivity:         gaugeConnectivity,
		HistogramRequestDuration:  histogramRequestDuration,
		HistogramDrainDuration:    histogramDrainDuration,
	}
}

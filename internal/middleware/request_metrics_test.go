package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/rerack/internal/middleware"
	"github.com/2beens/rerack/internal/telemetry/metrics"
)

func TestRequestMetrics(t *testing.T) {
	metricsManager := metrics.NewTestManager()

	r := mux.NewRouter()
	r.Use(middleware.RequestMetrics(metricsManager))
	r.HandleFunc("/api/workouts/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}).Methods("GET")
	r.HandleFunc("/api/workouts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}).Methods("POST")

	for _, path := range []string{"/api/workouts/1", "/api/workouts/2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rr.Code)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/workouts", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	assert.Equal(t, float64(2), testutil.ToFloat64(metricsManager.CounterRequests.WithLabelValues("GET", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRequests.WithLabelValues("POST", "201")))
	// both ids share one route label
	assert.Equal(t, 2, testutil.CollectAndCount(metricsManager.HistogramRequestDuration))
}

type testRequestRateLimiter struct {
	allowed int
	err     error
	keys    []string
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return &redis_rate.Result{
		Limit:      limit,
		Allowed:    l.allowed,
		RetryAfter: 12 * time.Second,
	}, nil
}

func TestRateLimit(t *testing.T) {
	testCases := []struct {
		name           string
		limiter        *testRequestRateLimiter
		expectedStatus int
	}{
		{
			name:           "Allowed",
			limiter:        &testRequestRateLimiter{allowed: 1},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Limited",
			limiter:        &testRequestRateLimiter{allowed: 0},
			expectedStatus: http.StatusTooManyRequests,
		},
		{
			name:           "LimiterErrorLetsThrough",
			limiter:        &testRequestRateLimiter{err: errors.New("redis down")},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			rr := httptest.NewRecorder()
			middleware.RateLimit(tc.limiter, "catalog", 60)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exercises/search", nil))

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, []string{"rerack:router:catalog"}, tc.limiter.keys)
			if tc.expectedStatus == http.StatusTooManyRequests {
				assert.Equal(t, "12", rr.Header().Get("Retry-After"))
			}
		})
	}
}

package aigen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/rerack/internal/telemetry/metrics"
)

const (
	DefaultAttemptTimeout = 15 * time.Second
	DefaultMaxRetries     = 3
	DefaultDailyLimit     = 3
	DefaultPerMinuteLimit = 15
	DefaultCacheMiB       = 4

	baseRetryDelay = 5 * time.Second
	cacheExpiry    = 24 * time.Hour

	perMinuteLimitKey = "rerack:ai:minute"
	dailyLimitKey     = "rerack:ai:daily"
)

var (
	ErrNotConfigured        = errors.New("ai generation not configured")
	ErrGenerationInProgress = errors.New("workout generation already in progress")
	ErrRateLimited          = errors.New("ai generation rate limited")
	ErrTimeout              = errors.New("ai request timed out")
)

//go:generate mockgen -source=$GOFILE -destination=generator_mocks_test.go -package=aigen_test

type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type rateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

type EventType string

const (
	EventRetry  EventType = "retry"
	EventDone   EventType = "done"
	EventFailed EventType = "failed"
)

// Event is one step of a generation. A stream carries zero or more retry
// events and ends with exactly one done or failed event.
type Event struct {
	Type      EventType     `json:"type"`
	Attempt   int           `json:"attempt,omitempty"`
	Delay     time.Duration `json:"delay,omitempty"`
	Workout   *Workout      `json:"workout,omitempty"`
	FromCache bool          `json:"fromCache,omitempty"`
	Error     string        `json:"error,omitempty"`
	Err       error         `json:"-"`
}

type GeneratorParams struct {
	// Completer may be nil, Generate then fails with ErrNotConfigured.
	Completer completer
	// RateLimiter may be nil, limits are then not enforced.
	RateLimiter    rateLimiter
	PerMinuteLimit int
	DailyLimit     int
	AttemptTimeout time.Duration
	MaxRetries     int
	CacheSizeBytes int
	Sleep          func(ctx context.Context, d time.Duration) error
	MetricsManager *metrics.Manager
}

type Generator struct {
	completer      completer
	rateLimiter    rateLimiter
	perMinuteLimit int
	dailyLimit     int
	attemptTimeout time.Duration
	maxRetries     int
	cache          *freecache.Cache
	sleep          func(ctx context.Context, d time.Duration) error
	metricsManager *metrics.Manager

	generating atomic.Bool
}

func NewGenerator(params GeneratorParams) *Generator {
	g := &Generator{
		completer:      params.Completer,
		rateLimiter:    params.RateLimiter,
		perMinuteLimit: params.PerMinuteLimit,
		dailyLimit:     params.DailyLimit,
		attemptTimeout: params.AttemptTimeout,
		maxRetries:     params.MaxRetries,
		sleep:          params.Sleep,
		metricsManager: params.MetricsManager,
	}
	if g.perMinuteLimit <= 0 {
		g.perMinuteLimit = DefaultPerMinuteLimit
	}
	if g.dailyLimit <= 0 {
		g.dailyLimit = DefaultDailyLimit
	}
	if g.attemptTimeout <= 0 {
		g.attemptTimeout = DefaultAttemptTimeout
	}
	if g.maxRetries < 0 {
		g.maxRetries = DefaultMaxRetries
	}
	if g.sleep == nil {
		g.sleep = sleepCtx
	}

	cacheSize := params.CacheSizeBytes
	if cacheSize <= 0 {
		cacheSize = DefaultCacheMiB * 1024 * 1024
	}
	g.cache = freecache.NewCache(cacheSize)

	return g
}

func (g *Generator) Configured() bool {
	return g.completer != nil
}

func (g *Generator) InProgress() bool {
	return g.generating.Load()
}

// Generate starts a workout generation. Errors that prevent the start are
// returned directly, everything after that arrives on the channel, which is
// closed after the final event. A cached result for the same params is
// returned unless bypassCache is set.
func (g *Generator) Generate(ctx context.Context, params Params, bypassCache bool) (<-chan Event, error) {
	if g.completer == nil {
		return nil, ErrNotConfigured
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !g.generating.CompareAndSwap(false, true) {
		return nil, ErrGenerationInProgress
	}

	cacheKey := params.CacheKey()
	if !bypassCache {
		if workout, ok := g.cached(cacheKey); ok {
			g.generating.Store(false)
			log.Debugf("ai workout served from cache: %s", cacheKey)
			events := make(chan Event, 1)
			events <- Event{Type: EventDone, Workout: workout, FromCache: true}
			close(events)
			return events, nil
		}
	}

	if err := g.allow(ctx, dailyLimitKey, redis_rate.Limit{
		Rate:   g.dailyLimit,
		Burst:  g.dailyLimit,
		Period: 24 * time.Hour,
	}); err != nil {
		g.generating.Store(false)
		return nil, err
	}

	// sized for every event a run can emit
	events := make(chan Event, g.maxRetries+2)
	go func() {
		defer close(events)
		defer g.generating.Store(false)

		workout, err := g.generateWithRetry(ctx, buildPrompt(params), events)
		if err != nil {
			log.Errorf("generate ai workout: %s", err)
			events <- Event{Type: EventFailed, Err: err, Error: err.Error()}
			return
		}

		g.store(cacheKey, workout)
		events <- Event{Type: EventDone, Workout: workout}
	}()

	return events, nil
}

func (g *Generator) generateWithRetry(ctx context.Context, prompt string, events chan<- Event) (*Workout, error) {
	for attempt := 0; ; attempt++ {
		if err := g.allow(ctx, perMinuteLimitKey, redis_rate.PerMinute(g.perMinuteLimit)); err != nil {
			return nil, err
		}

		text, err := g.complete(ctx, prompt)
		if err == nil {
			return parseWorkout(text)
		}
		if !errors.Is(err, ErrUpstreamRateLimited) || attempt >= g.maxRetries {
			return nil, err
		}

		delay := RetryDelay(attempt)
		if g.metricsManager != nil {
			g.metricsManager.CounterAIRetries.Inc()
		}
		log.Warnf("ai backend rate limited, retry %d/%d in %s", attempt+1, g.maxRetries, delay)
		events <- Event{Type: EventRetry, Attempt: attempt + 1, Delay: delay}

		if err := g.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()

	text, err := g.completer.Complete(ctx, prompt)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrTimeout, g.attemptTimeout)
	}
	return text, err
}

func (g *Generator) allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	if g.rateLimiter == nil {
		return nil
	}

	res, err := g.rateLimiter.Allow(ctx, key, limit)
	if err != nil {
		// a failing limiter does not block generation
		log.Errorf("check ai rate limit %s: %s", key, err)
		return nil
	}
	if res.Allowed == 0 {
		return fmt.Errorf("%w: %d per %s, retry after %s", ErrRateLimited, limit.Rate, limit.Period, res.RetryAfter.Round(time.Second))
	}

	return nil
}

func (g *Generator) cached(key string) (*Workout, bool) {
	raw, err := g.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}

	var workout Workout
	if err := json.Unmarshal(raw, &workout); err != nil {
		log.Errorf("unmarshal cached ai workout: %s", err)
		g.cache.Del([]byte(key))
		return nil, false
	}

	return &workout, true
}

func (g *Generator) store(key string, workout *Workout) {
	raw, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("marshal ai workout: %s", err)
		return
	}
	if err := g.cache.Set([]byte(key), raw, int(cacheExpiry.Seconds())); err != nil {
		log.Errorf("cache ai workout: %s", err)
	}
}

// RetryDelay is the wait before retry attempt+1: 5s, 10s, 20s, ...
func RetryDelay(attempt int) time.Duration {
	return baseRetryDelay << attempt
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

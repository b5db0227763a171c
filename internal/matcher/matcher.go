package matcher

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/rerack/internal/exercisedb"
	"github.com/2beens/rerack/internal/refcache"
	"github.com/2beens/rerack/internal/telemetry/metrics"
	"github.com/2beens/rerack/internal/telemetry/tracing"
)

const DefaultMinConfidence = 0.6

// ErrNoMatch means no catalog exercise is close enough to the name. It is a
// normal outcome, callers show a placeholder.
var ErrNoMatch = errors.New("no matching exercise")

const (
	outcomeCache   = "cache"
	outcomeMatched = "matched"
	outcomeNoMatch = "no_match"
	outcomeError   = "error"
)

//go:generate mockgen -source=$GOFILE -destination=matcher_mocks_test.go -package=matcher_test

type catalog interface {
	Search(ctx context.Context, query string) ([]exercisedb.Exercise, error)
}

type referenceCache interface {
	GetExercise(ctx context.Context, exerciseID string) (*exercisedb.Exercise, bool)
	PutExercise(ctx context.Context, ex exercisedb.Exercise) error
	GetMapping(ctx context.Context, name string) (*refcache.Mapping, bool)
	PutMapping(ctx context.Context, mapping refcache.Mapping) error
}

type Match struct {
	Exercise   exercisedb.Exercise `json:"exercise"`
	Confidence float64             `json:"confidence"`
	Query      string              `json:"query"`
	FromCache  bool                `json:"fromCache"`
}

// Matcher resolves free text exercise names to catalog exercises.
type Matcher struct {
	catalog        catalog
	cache          referenceCache
	metricsManager *metrics.Manager
}

// NewMatcher creates a matcher. cache may be nil.
func NewMatcher(catalog catalog, cache referenceCache, metricsManager *metrics.Manager) *Matcher {
	return &Matcher{
		catalog:        catalog,
		cache:          cache,
		metricsManager: metricsManager,
	}
}

func (m *Matcher) outcome(outcome string) {
	if m.metricsManager != nil {
		m.metricsManager.CounterMatcherResolutions.WithLabelValues(outcome).Inc()
	}
}

// fromCache serves a name from a cached mapping. When the mapping is still
// valid but its record is stale, the record is fetched again by the mapped
// catalog name.
func (m *Matcher) fromCache(ctx context.Context, name string, minConfidence float64) (*Match, bool) {
	if m.cache == nil {
		return nil, false
	}
	mapping, ok := m.cache.GetMapping(ctx, name)
	if !ok || mapping.Confidence < minConfidence {
		return nil, false
	}

	if ex, ok := m.cache.GetExercise(ctx, mapping.ExerciseID); ok {
		return &Match{Exercise: *ex, Confidence: mapping.Confidence, Query: name, FromCache: true}, true
	}

	results, err := m.catalog.Search(ctx, mapping.ExerciseName)
	if err != nil {
		log.Debugf("matcher revalidate mapping %s: %s", name, err)
		return nil, false
	}
	for _, ex := range results {
		if ex.ExerciseID != mapping.ExerciseID {
			continue
		}
		if err := m.cache.PutExercise(ctx, ex); err != nil {
			log.Warnf("matcher cache exercise %s: %s", ex.ExerciseID, err)
		}
		return &Match{Exercise: ex, Confidence: mapping.Confidence, Query: name}, true
	}
	return nil, false
}

func (m *Matcher) remember(ctx context.Context, name string, match *Match) {
	if m.cache == nil {
		return
	}
	if err := m.cache.PutMapping(ctx, refcache.Mapping{
		Name:         name,
		ExerciseID:   match.Exercise.ExerciseID,
		ExerciseName: match.Exercise.Name,
		Confidence:   match.Confidence,
	}); err != nil {
		log.Warnf("matcher cache mapping %s: %s", name, err)
	}
	if err := m.cache.PutExercise(ctx, match.Exercise); err != nil {
		log.Warnf("matcher cache exercise %s: %s", match.Exercise.ExerciseID, err)
	}
}

func (m *Matcher) resolve(ctx context.Context, name string, minConfidence float64) (*Match, error) {
	if match, ok := m.fromCache(ctx, name, minConfidence); ok {
		return match, nil
	}

	results, err := m.catalog.Search(ctx, name)
	if err != nil {
		log.Warnf("matcher search %s: %s", name, err)
		m.outcome(outcomeError)
		return nil, ErrNoMatch
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}

	bestScore := -1.0
	var best exercisedb.Exercise
	for _, ex := range results {
		if score := Similarity(name, ex.Name); score > bestScore {
			bestScore = score
			best = ex
		}
	}
	if bestScore < minConfidence {
		log.Tracef("matcher best score for %s is %.2f, below %.2f", name, bestScore, minConfidence)
		return nil, ErrNoMatch
	}

	match := &Match{Exercise: best, Confidence: bestScore, Query: name}
	m.remember(ctx, name, match)
	return match, nil
}

// Resolve searches the catalog for name and returns the best scoring
// candidate, or ErrNoMatch when it scores below minConfidence.
func (m *Matcher) Resolve(ctx context.Context, name string, minConfidence float64) (*Match, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "matcher.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("matcher.name", name))

	match, err := m.resolve(ctx, name, minConfidence)
	if err != nil {
		m.outcome(outcomeNoMatch)
		return nil, err
	}
	if match.FromCache {
		m.outcome(outcomeCache)
	} else {
		m.outcome(outcomeMatched)
	}
	return match, nil
}

// ResolveWithVariations tries the name as given and then its equipment
// variations, stopping at the first acceptable match.
func (m *Matcher) ResolveWithVariations(ctx context.Context, name string, minConfidence float64) (*Match, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "matcher.resolveWithVariations")
	defer span.End()
	span.SetAttributes(attribute.String("matcher.name", name))

	if strings.TrimSpace(name) == "" {
		m.outcome(outcomeNoMatch)
		return nil, ErrNoMatch
	}

	for _, variation := range Variations(name) {
		match, err := m.resolve(ctx, variation, minConfidence)
		if err != nil {
			continue
		}
		if variation != name && !match.FromCache {
			// next lookup of the original name is a single cache hit
			m.remember(ctx, name, match)
		}
		if match.FromCache {
			m.outcome(outcomeCache)
		} else {
			m.outcome(outcomeMatched)
		}
		return match, nil
	}

	m.outcome(outcomeNoMatch)
	return nil, ErrNoMatch
}

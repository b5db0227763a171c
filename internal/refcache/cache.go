package refcache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/2beens/rerack/internal/exercisedb"
	"github.com/2beens/rerack/internal/localstore"
	"github.com/2beens/rerack/internal/telemetry/metrics"
)

const (
	// CacheVersion is bumped whenever the cached record layout changes.
	// Records written under another version are treated as absent.
	CacheVersion = "1.0"

	DefaultTTL         = 7 * 24 * time.Hour
	DefaultHotCacheMiB = 8
)

const (
	kindExercise = "exercise"
	kindMapping  = "mapping"

	resultHot     = "hot"
	resultHit     = "hit"
	resultMiss    = "miss"
	resultExpired = "expired"
)

type CachedExercise struct {
	Data     exercisedb.Exercise `json:"data"`
	CachedAt time.Time           `json:"cachedAt"`
	Version  string              `json:"version"`
}

// Mapping links a free text exercise name to a catalog exercise.
type Mapping struct {
	Name         string    `json:"name"`
	ExerciseID   string    `json:"exerciseId"`
	ExerciseName string    `json:"exerciseName"`
	Confidence   float64   `json:"confidence"`
	CachedAt     time.Time `json:"cachedAt"`
}

type Stats struct {
	Exercises  int     `json:"exercises"`
	Mappings   int     `json:"mappings"`
	Expired    int     `json:"expired"`
	HotEntries int64   `json:"hotEntries"`
	HotHitRate float64 `json:"hotHitRate"`
}

// Cache keeps catalog records and name mappings for a bounded time. Entries
// are persisted in the local store with a freecache layer in front. Stale
// entries are evicted lazily when read.
type Cache struct {
	store          localstore.Store
	hot            *freecache.Cache
	ttl            time.Duration
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewCache(store localstore.Store, ttl time.Duration, hotCacheSizeBytes int, metricsManager *metrics.Manager) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if hotCacheSizeBytes <= 0 {
		hotCacheSizeBytes = DefaultHotCacheMiB * 1024 * 1024
	}
	return &Cache{
		store:          store,
		hot:            freecache.NewCache(hotCacheSizeBytes),
		ttl:            ttl,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// SetClock replaces the time source used for expiry checks.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

// expired reports whether an entry written at cachedAt is no longer valid.
// An entry is valid for reads strictly before cachedAt + ttl.
func (c *Cache) expired(cachedAt time.Time) bool {
	return !c.now().Before(cachedAt.Add(c.ttl))
}

func (c *Cache) remainingSeconds(cachedAt time.Time) int {
	remaining := int(cachedAt.Add(c.ttl).Sub(c.now()) / time.Second)
	return max(remaining, 1)
}

func (c *Cache) lookup(kind, result string) {
	if c.metricsManager != nil {
		c.metricsManager.CounterRefCacheLookups.WithLabelValues(kind, result).Inc()
	}
}

func normalizeMappingName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func hotKey(collection localstore.Collection, id string) []byte {
	return []byte(string(collection) + "::" + id)
}

func (c *Cache) evict(ctx context.Context, collection localstore.Collection, id string) {
	c.hot.Del(hotKey(collection, id))
	if err := c.store.Delete(ctx, collection, id); err != nil {
		log.Errorf("refcache evict %s/%s: %s", collection, id, err)
		return
	}
	if c.metricsManager != nil {
		c.metricsManager.CounterRefCacheEvictions.Inc()
	}
}

func (c *Cache) setHot(collection localstore.Collection, id string, value []byte, cachedAt time.Time) {
	if err := c.hot.Set(hotKey(collection, id), value, c.remainingSeconds(cachedAt)); err != nil {
		log.Debugf("refcache hot set %s/%s: %s", collection, id, err)
	}
}

// GetExercise returns the cached catalog record, or false when it is
// missing, stale or written under another cache version.
func (c *Cache) GetExercise(ctx context.Context, exerciseID string) (*exercisedb.Exercise, bool) {
	if raw, err := c.hot.Get(hotKey(localstore.CollectionExerciseCache, exerciseID)); err == nil {
		var cached CachedExercise
		if err := json.Unmarshal(raw, &cached); err == nil && !c.expired(cached.CachedAt) && cached.Version == CacheVersion {
			c.lookup(kindExercise, resultHot)
			return &cached.Data, true
		}
	}

	cached, err := localstore.GetJSON[CachedExercise](ctx, c.store, localstore.CollectionExerciseCache, exerciseID)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			log.Warnf("refcache get exercise %s: %s", exerciseID, err)
		}
		c.lookup(kindExercise, resultMiss)
		return nil, false
	}

	if c.expired(cached.CachedAt) || cached.Version != CacheVersion {
		c.evict(ctx, localstore.CollectionExerciseCache, exerciseID)
		c.lookup(kindExercise, resultExpired)
		return nil, false
	}

	if raw, err := json.Marshal(cached); err == nil {
		c.setHot(localstore.CollectionExerciseCache, exerciseID, raw, cached.CachedAt)
	}
	c.lookup(kindExercise, resultHit)
	return &cached.Data, true
}

func (c *Cache) PutExercise(ctx context.Context, ex exercisedb.Exercise) error {
	cached := CachedExercise{
		Data:     ex,
		CachedAt: c.now(),
		Version:  CacheVersion,
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, localstore.CollectionExerciseCache, ex.ExerciseID, raw); err != nil {
		return err
	}
	c.setHot(localstore.CollectionExerciseCache, ex.ExerciseID, raw, cached.CachedAt)
	return nil
}

// GetMapping looks up a name mapping case-insensitively. Mappings expire
// independently of the records they point to.
func (c *Cache) GetMapping(ctx context.Context, name string) (*Mapping, bool) {
	key := normalizeMappingName(name)

	if raw, err := c.hot.Get(hotKey(localstore.CollectionExerciseMappings, key)); err == nil {
		var m Mapping
		if err := json.Unmarshal(raw, &m); err == nil && !c.expired(m.CachedAt) {
			c.lookup(kindMapping, resultHot)
			return &m, true
		}
	}

	m, err := localstore.GetJSON[Mapping](ctx, c.store, localstore.CollectionExerciseMappings, key)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			log.Warnf("refcache get mapping %s: %s", key, err)
		}
		c.lookup(kindMapping, resultMiss)
		return nil, false
	}

	if c.expired(m.CachedAt) {
		c.evict(ctx, localstore.CollectionExerciseMappings, key)
		c.lookup(kindMapping, resultExpired)
		return nil, false
	}

	if raw, err := json.Marshal(m); err == nil {
		c.setHot(localstore.CollectionExerciseMappings, key, raw, m.CachedAt)
	}
	c.lookup(kindMapping, resultHit)
	return m, true
}

func (c *Cache) PutMapping(ctx context.Context, m Mapping) error {
	m.Name = normalizeMappingName(m.Name)
	m.CachedAt = c.now()
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, localstore.CollectionExerciseMappings, m.Name, raw); err != nil {
		return err
	}
	c.setHot(localstore.CollectionExerciseMappings, m.Name, raw, m.CachedAt)
	return nil
}

// cacheEntry holds the fields shared by records and mappings.
type cacheEntry struct {
	CachedAt time.Time `json:"cachedAt"`
	Version  string    `json:"version"`
}

func (c *Cache) staleIDs(ctx context.Context, collection localstore.Collection, checkVersion bool) ([]string, int, error) {
	entries, err := c.store.List(ctx, collection)
	if err != nil {
		return nil, 0, err
	}
	var stale []string
	for _, e := range entries {
		var entry cacheEntry
		if err := json.Unmarshal(e.Value, &entry); err != nil ||
			c.expired(entry.CachedAt) ||
			(checkVersion && entry.Version != CacheVersion) {
			stale = append(stale, e.ID)
		}
	}
	return stale, len(entries), nil
}

// ClearExpired removes every stale record and mapping and returns how many
// were removed.
func (c *Cache) ClearExpired(ctx context.Context) (int, error) {
	removed := 0
	var errs error
	for _, collection := range []localstore.Collection{
		localstore.CollectionExerciseCache,
		localstore.CollectionExerciseMappings,
	} {
		stale, _, err := c.staleIDs(ctx, collection, collection == localstore.CollectionExerciseCache)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, id := range stale {
			c.hot.Del(hotKey(collection, id))
			if err := c.store.Delete(ctx, collection, id); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			removed++
		}
	}
	if removed > 0 && c.metricsManager != nil {
		c.metricsManager.CounterRefCacheEvictions.Add(float64(removed))
	}
	return removed, errs
}

func (c *Cache) ClearAll(ctx context.Context) error {
	c.hot.Clear()
	return multierr.Combine(
		c.store.Clear(ctx, localstore.CollectionExerciseCache),
		c.store.Clear(ctx, localstore.CollectionExerciseMappings),
	)
}

func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	staleExercises, exercises, err := c.staleIDs(ctx, localstore.CollectionExerciseCache, true)
	if err != nil {
		return Stats{}, err
	}
	staleMappings, mappings, err := c.staleIDs(ctx, localstore.CollectionExerciseMappings, false)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Exercises:  exercises,
		Mappings:   mappings,
		Expired:    len(staleExercises) + len(staleMappings),
		HotEntries: c.hot.EntryCount(),
		HotHitRate: c.hot.HitRate(),
	}, nil
}

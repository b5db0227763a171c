package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("local entry not found")

type Collection string

const (
	CollectionWorkouts         Collection = "workouts"
	CollectionPersonalRecords  Collection = "personalRecords"
	CollectionProfile          Collection = "profile"
	CollectionTemplates        Collection = "templates"
	CollectionSyncQueue        Collection = "syncQueue"
	CollectionSyncDeadLetter   Collection = "syncDeadLetter"
	CollectionExerciseCache    Collection = "exerciseCache"
	CollectionExerciseMappings Collection = "exerciseMappings"
)

// ProfileKey is the single key the user profile is stored under.
const ProfileKey = "current"

type Entry struct {
	ID        string
	Value     []byte
	UpdatedAt time.Time
}

// Store is a durable keyed store partitioned by collection. Writes are
// atomic per key. List makes no ordering guarantee.
type Store interface {
	Put(ctx context.Context, collection Collection, id string, value []byte) error
	Get(ctx context.Context, collection Collection, id string) ([]byte, error)
	List(ctx context.Context, collection Collection) ([]Entry, error)
	Delete(ctx context.Context, collection Collection, id string) error
	Clear(ctx context.Context, collection Collection) error
	Count(ctx context.Context, collection Collection) (int, error)
	Exists(ctx context.Context, collection Collection) (bool, error)
	Close() error
}

func SaveJSON(ctx context.Context, store Store, collection Collection, id string, v any) error {
	valueJson, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	return store.Put(ctx, collection, id, valueJson)
}

func GetJSON[T any](ctx context.Context, store Store, collection Collection, id string) (*T, error) {
	raw, err := store.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s/%s: %w", collection, id, err)
	}
	return &v, nil
}

// ListJSON decodes every entry of a collection. Entries that fail to decode
// are skipped and reported through the returned count.
func ListJSON[T any](ctx context.Context, store Store, collection Collection) (_ []T, skipped int, err error) {
	entries, err := store.List(ctx, collection)
	if err != nil {
		return nil, 0, err
	}
	values := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			skipped++
			continue
		}
		values = append(values, v)
	}
	return values, skipped, nil
}

// New opens the sqlite store at path, or an in-memory store when path is empty.
func New(path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return OpenSQLite(path)
}

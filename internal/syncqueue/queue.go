package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/rerack/internal/localstore"
	"github.com/2beens/rerack/internal/telemetry/metrics"
)

type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Operation is a remote mutation that failed and waits to be replayed.
type Operation struct {
	ID         string                `json:"id"`
	Kind       Kind                  `json:"kind"`
	Collection localstore.Collection `json:"collection"`
	EntityID   string                `json:"entityId"`
	OwnerID    string                `json:"ownerId,omitempty"`
	Payload    json.RawMessage       `json:"payload,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
	Attempts   int                   `json:"attempts"`
	LastError  string                `json:"lastError,omitempty"`
}

// Queue persists operations in the local store so they survive restarts.
type Queue struct {
	store          localstore.Store
	metricsManager *metrics.Manager

	mutex  sync.Mutex
	last   time.Time
	loaded bool
	now    func() time.Time
}

func NewQueue(store localstore.Store, metricsManager *metrics.Manager) *Queue {
	return &Queue{
		store:          store,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// nextTimestamp returns the current time, bumped if needed so timestamps are
// strictly increasing across the lifetime of the queue.
func (q *Queue) nextTimestamp(ctx context.Context) time.Time {
	if !q.loaded {
		if ops, err := q.list(ctx, localstore.CollectionSyncQueue); err == nil {
			for _, op := range ops {
				if op.Timestamp.After(q.last) {
					q.last = op.Timestamp
				}
			}
			q.loaded = true
		}
	}

	ts := q.now()
	if !ts.After(q.last) {
		ts = q.last.Add(time.Nanosecond)
	}
	q.last = ts
	return ts
}

// Enqueue assigns a fresh id and timestamp to op and persists it.
func (q *Queue) Enqueue(ctx context.Context, op Operation) (Operation, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	op.ID = uuid.NewString()
	op.Timestamp = q.nextTimestamp(ctx)
	op.Attempts = 0
	op.LastError = ""

	if err := localstore.SaveJSON(ctx, q.store, localstore.CollectionSyncQueue, op.ID, op); err != nil {
		return Operation{}, fmt.Errorf("enqueue %s %s/%s: %w", op.Kind, op.Collection, op.EntityID, err)
	}

	log.Debugf("sync queue: enqueued %s %s/%s [%s]", op.Kind, op.Collection, op.EntityID, op.ID)
	if q.metricsManager != nil {
		q.metricsManager.CounterSyncEnqueued.WithLabelValues(string(op.Collection), string(op.Kind)).Inc()
		q.metricsManager.GaugeSyncPending.Inc()
	}
	return op, nil
}

func (q *Queue) list(ctx context.Context, collection localstore.Collection) ([]Operation, error) {
	ops, skipped, err := localstore.ListJSON[Operation](ctx, q.store, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	if skipped > 0 {
		log.Errorf("sync queue: %d undecodable entries in %s", skipped, collection)
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Timestamp.Before(ops[j].Timestamp)
	})
	return ops, nil
}

// Pending returns queued operations in ascending timestamp order.
func (q *Queue) Pending(ctx context.Context) ([]Operation, error) {
	return q.list(ctx, localstore.CollectionSyncQueue)
}

// DeadLettered returns operations that exhausted their attempts.
func (q *Queue) DeadLettered(ctx context.Context) ([]Operation, error) {
	return q.list(ctx, localstore.CollectionSyncDeadLetter)
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.store.Count(ctx, localstore.CollectionSyncQueue)
}

func (q *Queue) Remove(ctx context.Context, id string) error {
	if err := q.store.Delete(ctx, localstore.CollectionSyncQueue, id); err != nil {
		return err
	}
	if q.metricsManager != nil {
		q.metricsManager.GaugeSyncPending.Dec()
	}
	return nil
}

// Save persists the replay bookkeeping of an already queued operation.
func (q *Queue) Save(ctx context.Context, op Operation) error {
	return localstore.SaveJSON(ctx, q.store, localstore.CollectionSyncQueue, op.ID, op)
}

// MoveToDeadLetter takes op out of the queue and parks it in the dead letter
// collection.
func (q *Queue) MoveToDeadLetter(ctx context.Context, op Operation) error {
	if err := localstore.SaveJSON(ctx, q.store, localstore.CollectionSyncDeadLetter, op.ID, op); err != nil {
		return fmt.Errorf("dead letter %s: %w", op.ID, err)
	}
	return q.Remove(ctx, op.ID)
}

// PendingEntities returns the ids of entities in the collection that have
// queued operations. Their local copies are newer than the remote ones.
func (q *Queue) PendingEntities(ctx context.Context, collection localstore.Collection) (map[string]bool, error) {
	ops, err := q.Pending(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool)
	for _, op := range ops {
		if op.Collection == collection {
			ids[op.EntityID] = true
		}
	}
	return ids, nil
}

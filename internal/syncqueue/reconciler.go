package syncqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/rerack/internal/auth"
	"github.com/2beens/rerack/internal/telemetry/metrics"
	"github.com/2beens/rerack/internal/telemetry/tracing"
)

var (
	ErrDrainInProgress = errors.New("sync drain already in progress")
	ErrNoSession       = errors.New("no valid session, cannot drain")
)

//go:generate mockgen -source=$GOFILE -destination=reconciler_mocks_test.go -package=syncqueue_test

// applier replays one operation against the remote store. Create and update
// must be upserts, delete is delete-by-id.
type applier interface {
	Apply(ctx context.Context, sess *auth.Session, op Operation) error
}

// Result counts every pending operation seen by a drain. Skipped operations
// stay queued without an attempt: they belong to another user, or the drain
// was cancelled before reaching them.
type Result struct {
	Synced       int `json:"synced"`
	Failed       int `json:"failed"`
	DeadLettered int `json:"deadLettered"`
	Skipped      int `json:"skipped"`
}

type Reconciler struct {
	queue          *Queue
	applier        applier
	maxAttempts    int
	metricsManager *metrics.Manager
	draining       sync.Mutex
}

// NewReconciler creates a reconciler. maxAttempts of 0 keeps failing
// operations queued forever.
func NewReconciler(queue *Queue, applier applier, maxAttempts int, metricsManager *metrics.Manager) *Reconciler {
	return &Reconciler{
		queue:          queue,
		applier:        applier,
		maxAttempts:    maxAttempts,
		metricsManager: metricsManager,
	}
}

// Drain replays all queued operations in timestamp order. A failing
// operation stays queued and the drain moves on to the next one.
func (r *Reconciler) Drain(ctx context.Context, sess *auth.Session) (_ Result, err error) {
	if !sess.Valid() {
		return Result{}, ErrNoSession
	}
	if !r.draining.TryLock() {
		return Result{}, ErrDrainInProgress
	}
	defer r.draining.Unlock()

	ctx, span := tracing.GlobalTracer.Start(ctx, "syncqueue.drain")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	if r.metricsManager != nil {
		defer func(begin time.Time) {
			r.metricsManager.HistogramDrainDuration.Observe(time.Since(begin).Seconds())
		}(time.Now())
	}

	ops, err := r.queue.Pending(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(ops) == 0 {
		return Result{}, nil
	}

	log.Debugf("sync drain: %d pending operations", len(ops))

	var result Result
	for i, op := range ops {
		if ctx.Err() != nil {
			result.Skipped += len(ops) - i
			log.Warnf("sync drain cancelled, %d operations left queued: %s", len(ops)-i, ctx.Err())
			break
		}
		if op.OwnerID != "" && op.OwnerID != sess.UserID {
			result.Skipped++
			continue
		}

		applyErr := r.applier.Apply(ctx, sess, op)
		if applyErr == nil {
			if err := r.queue.Remove(ctx, op.ID); err != nil {
				log.Errorf("sync drain: remove applied op %s: %s", op.ID, err)
			}
			result.Synced++
			if r.metricsManager != nil {
				r.metricsManager.CounterSyncApplied.Inc()
			}
			continue
		}

		result.Failed++
		op.Attempts++
		op.LastError = applyErr.Error()
		log.Warnf("sync drain: %s %s/%s failed [attempt %d]: %s", op.Kind, op.Collection, op.EntityID, op.Attempts, applyErr)
		if r.metricsManager != nil {
			r.metricsManager.CounterSyncFailed.Inc()
		}

		if r.maxAttempts > 0 && op.Attempts >= r.maxAttempts {
			if err := r.queue.MoveToDeadLetter(ctx, op); err != nil {
				log.Errorf("sync drain: dead letter op %s: %s", op.ID, err)
				continue
			}
			result.DeadLettered++
			if r.metricsManager != nil {
				r.metricsManager.CounterSyncDeadLettered.Inc()
			}
			continue
		}

		if err := r.queue.Save(ctx, op); err != nil {
			log.Errorf("sync drain: save op %s attempts: %s", op.ID, err)
		}
	}

	span.SetAttributes(
		attribute.Int("sync.synced", result.Synced),
		attribute.Int("sync.failed", result.Failed),
		attribute.Int("sync.skipped", result.Skipped),
	)
	log.Infof("sync drain done: synced %d, failed %d, dead lettered %d, skipped %d", result.Synced, result.Failed, result.DeadLettered, result.Skipped)
	return result, nil
}

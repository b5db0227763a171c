package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/rerack/internal/auth"
	"github.com/2beens/rerack/internal/gymstats/progress"
	"github.com/2beens/rerack/internal/gymstats/workouts"
	"github.com/2beens/rerack/internal/localstore"
	"github.com/2beens/rerack/internal/remote"
	"github.com/2beens/rerack/internal/syncqueue"
	"github.com/2beens/rerack/internal/telemetry/metrics"
	"github.com/2beens/rerack/internal/telemetry/tracing"
)

const DefaultRemoteTimeout = 15 * time.Second

var (
	ErrWorkoutNotFound    = errors.New("workout not found")
	ErrInvalidWorkout     = errors.New("invalid workout")
	ErrRemoteUnavailable  = errors.New("remote store not configured")
	ErrUnsupportedReplay  = errors.New("unsupported sync operation")
	ErrPersonalRecordNone = errors.New("no personal record for exercise")
	ErrForeignOperation   = errors.New("sync operation queued by another user")
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=storage_test

// remoteBackend is the remote relational store, scoped per user.
type remoteBackend interface {
	UpsertWorkout(ctx context.Context, userID string, w workouts.Workout) error
	GetWorkout(ctx context.Context, userID, id string) (*workouts.Workout, error)
	ListWorkouts(ctx context.Context, userID string) ([]workouts.Workout, error)
	DeleteWorkout(ctx context.Context, userID, id string) error
	UpsertProfile(ctx context.Context, userID string, p workouts.UserProfile) error
	GetProfile(ctx context.Context, userID string) (*workouts.UserProfile, error)
	UpsertPersonalRecord(ctx context.Context, userID string, pr workouts.PersonalRecord) error
	ListPersonalRecords(ctx context.Context, userID string) ([]workouts.PersonalRecord, error)
}

type NewServiceParams struct {
	Local          localstore.Store
	Remote         remoteBackend // nil means local only
	RemoteTimeout  time.Duration
	MaxAttempts    int
	MetricsManager *metrics.Manager
}

// Service decides remote or local for every entity operation. The local
// store is always written first and is authoritative until queued remote
// operations are drained.
type Service struct {
	local          localstore.Store
	remote         remoteBackend
	remoteTimeout  time.Duration
	queue          *syncqueue.Queue
	reconciler     *syncqueue.Reconciler
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewService(params NewServiceParams) *Service {
	remoteTimeout := params.RemoteTimeout
	if remoteTimeout <= 0 {
		remoteTimeout = DefaultRemoteTimeout
	}

	s := &Service{
		local:          params.Local,
		remote:         params.Remote,
		remoteTimeout:  remoteTimeout,
		queue:          syncqueue.NewQueue(params.Local, params.MetricsManager),
		metricsManager: params.MetricsManager,
		now:            time.Now,
	}
	s.reconciler = syncqueue.NewReconciler(s.queue, s, params.MaxAttempts, params.MetricsManager)
	return s
}

func (s *Service) Queue() *syncqueue.Queue {
	return s.queue
}

// RemoteActive reports whether operations for this session go to the remote store.
func (s *Service) RemoteActive(sess *auth.Session) bool {
	return s.remote != nil && sess.Valid()
}

func (s *Service) remoteFailed(op string, err error) {
	log.Warnf("remote %s failed, falling back to local: %s", op, err)
	if s.metricsManager != nil {
		s.metricsManager.CounterRemoteFallbacks.WithLabelValues(op).Inc()
	}
}

func (s *Service) enqueue(ctx context.Context, sess *auth.Session, kind syncqueue.Kind, collection localstore.Collection, entityID string, payload any) {
	op := syncqueue.Operation{
		Kind:       kind,
		Collection: collection,
		EntityID:   entityID,
		OwnerID:    sess.UserID,
	}
	if payload != nil {
		payloadJson, err := json.Marshal(payload)
		if err != nil {
			log.Errorf("sync enqueue %s/%s, marshal payload: %s", collection, entityID, err)
			return
		}
		op.Payload = payloadJson
	}
	if _, err := s.queue.Enqueue(ctx, op); err != nil {
		log.Errorf("sync enqueue %s %s/%s: %s", kind, collection, entityID, err)
	}
}

func (s *Service) pendingEntities(ctx context.Context, collection localstore.Collection) map[string]bool {
	pending, err := s.queue.PendingEntities(ctx, collection)
	if err != nil {
		log.Errorf("list pending %s sync operations: %s", collection, err)
		return map[string]bool{}
	}
	return pending
}

func (s *Service) localExists(ctx context.Context, collection localstore.Collection, id string) bool {
	_, err := s.local.Get(ctx, collection, id)
	return err == nil
}

func (s *Service) saveLocal(ctx context.Context, collection localstore.Collection, id string, v any) {
	if err := localstore.SaveJSON(ctx, s.local, collection, id, v); err != nil {
		log.Errorf("local save %s/%s: %s", collection, id, err)
	}
}

func (s *Service) SaveWorkout(ctx context.Context, sess *auth.Session, w workouts.Workout) (_ workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.saveWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := w.Validate(); err != nil {
		return workouts.Workout{}, fmt.Errorf("%w: %w", ErrInvalidWorkout, err)
	}
	if w.ID == "" {
		w.ID = workouts.NewWorkoutID(s.now())
	}
	if w.Date.IsZero() {
		w.Date = s.now()
	}
	if sess.Valid() {
		w.UserID = sess.UserID
	}
	span.SetAttributes(attribute.String("workout.id", w.ID))

	existed := s.localExists(ctx, localstore.CollectionWorkouts, w.ID)
	s.saveLocal(ctx, localstore.CollectionWorkouts, w.ID, w)

	if !s.RemoteActive(sess) {
		return w, nil
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	if err := s.remote.UpsertWorkout(remoteCtx, sess.UserID, w); err != nil {
		s.remoteFailed("saveWorkout", err)
		kind := syncqueue.KindCreate
		if existed {
			kind = syncqueue.KindUpdate
		}
		s.enqueue(ctx, sess, kind, localstore.CollectionWorkouts, w.ID, w)
	}

	return w, nil
}

func (s *Service) getLocalWorkout(ctx context.Context, id string) (*workouts.Workout, error) {
	w, err := localstore.GetJSON[workouts.Workout](ctx, s.local, localstore.CollectionWorkouts, id)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			log.Errorf("local get workout %s: %s", id, err)
		}
		return nil, ErrWorkoutNotFound
	}
	return w, nil
}

func (s *Service) GetWorkout(ctx context.Context, sess *auth.Session, id string) (_ *workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.getWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	if !s.RemoteActive(sess) || s.pendingEntities(ctx, localstore.CollectionWorkouts)[id] {
		return s.getLocalWorkout(ctx, id)
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	w, err := s.remote.GetWorkout(remoteCtx, sess.UserID, id)
	if err != nil {
		if !errors.Is(err, remote.ErrNotFound) {
			s.remoteFailed("getWorkout", err)
		}
		return s.getLocalWorkout(ctx, id)
	}

	s.saveLocal(ctx, localstore.CollectionWorkouts, w.ID, w)
	return w, nil
}

func (s *Service) listLocalWorkouts(ctx context.Context) []workouts.Workout {
	ws, skipped, err := localstore.ListJSON[workouts.Workout](ctx, s.local, localstore.CollectionWorkouts)
	if err != nil {
		log.Errorf("local list workouts: %s", err)
		return []workouts.Workout{}
	}
	if skipped > 0 {
		log.Warnf("local list workouts: skipped %d undecodable entries", skipped)
	}
	return ws
}

// GetAllWorkouts returns workouts sorted by date, newest first.
func (s *Service) GetAllWorkouts(ctx context.Context, sess *auth.Session) []workouts.Workout {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.getAllWorkouts")
	defer span.End()

	localWorkouts := s.listLocalWorkouts(ctx)
	if !s.RemoteActive(sess) {
		workouts.SortByDateDesc(localWorkouts)
		return localWorkouts
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	remoteWorkouts, err := s.remote.ListWorkouts(remoteCtx, sess.UserID)
	if err != nil {
		s.remoteFailed("getAllWorkouts", err)
		workouts.SortByDateDesc(localWorkouts)
		return localWorkouts
	}

	pending := s.pendingEntities(ctx, localstore.CollectionWorkouts)
	localByID := make(map[string]workouts.Workout, len(localWorkouts))
	for _, w := range localWorkouts {
		localByID[w.ID] = w
	}

	merged := make([]workouts.Workout, 0, len(remoteWorkouts))
	seen := make(map[string]bool, len(remoteWorkouts))
	for _, w := range remoteWorkouts {
		seen[w.ID] = true
		if pending[w.ID] {
			// queued local change wins, a pending delete drops it
			if lw, ok := localByID[w.ID]; ok {
				merged = append(merged, lw)
			}
			continue
		}
		s.saveLocal(ctx, localstore.CollectionWorkouts, w.ID, w)
		merged = append(merged, w)
	}
	for id := range pending {
		if lw, ok := localByID[id]; ok && !seen[id] {
			merged = append(merged, lw)
		}
	}

	workouts.SortByDateDesc(merged)
	return merged
}

func (s *Service) DeleteWorkout(ctx context.Context, sess *auth.Session, id string) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.deleteWorkout")
	defer span.End()
	span.SetAttributes(attribute.String("workout.id", id))

	if err := s.local.Delete(ctx, localstore.CollectionWorkouts, id); err != nil {
		log.Errorf("local delete workout %s: %s", id, err)
	}

	if !s.RemoteActive(sess) {
		return
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	if err := s.remote.DeleteWorkout(remoteCtx, sess.UserID, id); err != nil {
		s.remoteFailed("deleteWorkout", err)
		s.enqueue(ctx, sess, syncqueue.KindDelete, localstore.CollectionWorkouts, id, nil)
	}
}

func (s *Service) SaveUserProfile(ctx context.Context, sess *auth.Session, p workouts.UserProfile) workouts.UserProfile {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.saveUserProfile")
	defer span.End()

	p.Level = progress.Level(p.XP)
	p.Rank = progress.RankFromLevel(p.Level)
	p.UpdatedAt = s.now()
	existed := s.localExists(ctx, localstore.CollectionProfile, localstore.ProfileKey)
	s.saveLocal(ctx, localstore.CollectionProfile, localstore.ProfileKey, p)

	if !s.RemoteActive(sess) {
		return p
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	if err := s.remote.UpsertProfile(remoteCtx, sess.UserID, p); err != nil {
		s.remoteFailed("saveUserProfile", err)
		kind := syncqueue.KindCreate
		if existed {
			kind = syncqueue.KindUpdate
		}
		s.enqueue(ctx, sess, kind, localstore.CollectionProfile, localstore.ProfileKey, p)
	}
	return p
}

func (s *Service) getLocalProfile(ctx context.Context) workouts.UserProfile {
	p, err := localstore.GetJSON[workouts.UserProfile](ctx, s.local, localstore.CollectionProfile, localstore.ProfileKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			log.Errorf("local get profile: %s", err)
		}
		return workouts.DefaultProfile()
	}
	return *p
}

// GetUserProfile returns the stored profile, or a fresh default one when the
// user has none yet.
func (s *Service) GetUserProfile(ctx context.Context, sess *auth.Session) workouts.UserProfile {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.getUserProfile")
	defer span.End()

	if !s.RemoteActive(sess) || s.pendingEntities(ctx, localstore.CollectionProfile)[localstore.ProfileKey] {
		return s.getLocalProfile(ctx)
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	p, err := s.remote.GetProfile(remoteCtx, sess.UserID)
	if err != nil {
		if !errors.Is(err, remote.ErrNotFound) {
			s.remoteFailed("getUserProfile", err)
		}
		return s.getLocalProfile(ctx)
	}

	s.saveLocal(ctx, localstore.CollectionProfile, localstore.ProfileKey, p)
	return *p
}

func (s *Service) SavePersonalRecord(ctx context.Context, sess *auth.Session, pr workouts.PersonalRecord) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.savePersonalRecord")
	defer span.End()
	span.SetAttributes(attribute.String("exercise.id", pr.ExerciseID))

	s.saveLocal(ctx, localstore.CollectionPersonalRecords, pr.Key(), pr)

	if !s.RemoteActive(sess) {
		return
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	if err := s.remote.UpsertPersonalRecord(remoteCtx, sess.UserID, pr); err != nil {
		s.remoteFailed("savePersonalRecord", err)
		s.enqueue(ctx, sess, syncqueue.KindCreate, localstore.CollectionPersonalRecords, pr.Key(), pr)
	}
}

func (s *Service) listLocalPersonalRecords(ctx context.Context) []workouts.PersonalRecord {
	prs, skipped, err := localstore.ListJSON[workouts.PersonalRecord](ctx, s.local, localstore.CollectionPersonalRecords)
	if err != nil {
		log.Errorf("local list personal records: %s", err)
		return []workouts.PersonalRecord{}
	}
	if skipped > 0 {
		log.Warnf("local list personal records: skipped %d undecodable entries", skipped)
	}
	return prs
}

func (s *Service) GetAllPersonalRecords(ctx context.Context, sess *auth.Session) []workouts.PersonalRecord {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.getAllPersonalRecords")
	defer span.End()

	localRecords := s.listLocalPersonalRecords(ctx)
	if !s.RemoteActive(sess) {
		return localRecords
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	remoteRecords, err := s.remote.ListPersonalRecords(remoteCtx, sess.UserID)
	if err != nil {
		s.remoteFailed("getAllPersonalRecords", err)
		return localRecords
	}

	seen := make(map[string]bool, len(remoteRecords))
	for _, pr := range remoteRecords {
		seen[pr.Key()] = true
		s.saveLocal(ctx, localstore.CollectionPersonalRecords, pr.Key(), pr)
	}
	// records are append only, so queued local ones are simply added
	pending := s.pendingEntities(ctx, localstore.CollectionPersonalRecords)
	for _, pr := range localRecords {
		if pending[pr.Key()] && !seen[pr.Key()] {
			remoteRecords = append(remoteRecords, pr)
		}
	}
	return remoteRecords
}

// GetPersonalRecordForExercise returns the record with the highest
// weight × reps for the exercise.
func (s *Service) GetPersonalRecordForExercise(ctx context.Context, sess *auth.Session, exerciseID string) (workouts.PersonalRecord, error) {
	best, ok := workouts.BestPersonalRecord(s.GetAllPersonalRecords(ctx, sess), exerciseID)
	if !ok {
		return workouts.PersonalRecord{}, ErrPersonalRecordNone
	}
	return best, nil
}

// SyncOfflineData drains the sync queue against the remote store.
func (s *Service) SyncOfflineData(ctx context.Context, sess *auth.Session) (syncqueue.Result, error) {
	if s.remote == nil {
		return syncqueue.Result{}, ErrRemoteUnavailable
	}
	return s.reconciler.Drain(ctx, sess)
}

func (s *Service) PendingSyncCount(ctx context.Context) (int, error) {
	return s.queue.Len(ctx)
}

// Apply replays one queued operation against the remote store.
func (s *Service) Apply(ctx context.Context, sess *auth.Session, op syncqueue.Operation) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.apply")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("op.collection", string(op.Collection)),
		attribute.String("op.kind", string(op.Kind)),
	)

	if s.remote == nil {
		return ErrRemoteUnavailable
	}
	if op.OwnerID != "" && op.OwnerID != sess.UserID {
		return fmt.Errorf("%w: %s", ErrForeignOperation, op.ID)
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	switch op.Collection {
	case localstore.CollectionWorkouts:
		if op.Kind == syncqueue.KindDelete {
			return s.remote.DeleteWorkout(remoteCtx, sess.UserID, op.EntityID)
		}
		var w workouts.Workout
		if err := json.Unmarshal(op.Payload, &w); err != nil {
			return fmt.Errorf("decode workout payload: %w", err)
		}
		w.UserID = sess.UserID
		return s.remote.UpsertWorkout(remoteCtx, sess.UserID, w)
	case localstore.CollectionPersonalRecords:
		if op.Kind == syncqueue.KindDelete {
			return fmt.Errorf("%w: delete %s", ErrUnsupportedReplay, op.Collection)
		}
		var pr workouts.PersonalRecord
		if err := json.Unmarshal(op.Payload, &pr); err != nil {
			return fmt.Errorf("decode personal record payload: %w", err)
		}
		return s.remote.UpsertPersonalRecord(remoteCtx, sess.UserID, pr)
	case localstore.CollectionProfile:
		if op.Kind == syncqueue.KindDelete {
			return fmt.Errorf("%w: delete %s", ErrUnsupportedReplay, op.Collection)
		}
		var p workouts.UserProfile
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return fmt.Errorf("decode profile payload: %w", err)
		}
		return s.remote.UpsertProfile(remoteCtx, sess.UserID, p)
	default:
		return fmt.Errorf("%w: collection %s", ErrUnsupportedReplay, op.Collection)
	}
}

package storage

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/2beens/rerack/internal/auth"
	"github.com/2beens/rerack/internal/gymstats/workouts"
	"github.com/2beens/rerack/internal/localstore"
	"github.com/2beens/rerack/internal/telemetry/tracing"
)

var ErrNoSession = errors.New("migration needs a valid session")

type MigrationResult struct {
	Workouts        int `json:"workouts"`
	PersonalRecords int `json:"personalRecords"`
	Profile         int `json:"profile"`
	Failed          int `json:"failed"`
	TotalWorkouts   int `json:"totalWorkouts"`
}

// Success is false when any item failed to migrate. Local data must not be
// purged in that case.
func (r MigrationResult) Success() bool {
	return r.Failed == 0
}

// MigrateLocalToCloud upserts every local workout, personal record and the
// profile for the session user. It never deletes local data and is safe to
// run again.
func (s *Service) MigrateLocalToCloud(ctx context.Context, sess *auth.Session) (_ MigrationResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.migrate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if s.remote == nil {
		return MigrationResult{}, ErrRemoteUnavailable
	}
	if !sess.Valid() {
		return MigrationResult{}, ErrNoSession
	}

	var result MigrationResult

	localWorkouts := s.listLocalWorkouts(ctx)
	result.TotalWorkouts = len(localWorkouts)
	for _, w := range localWorkouts {
		w.UserID = sess.UserID
		remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		err := s.remote.UpsertWorkout(remoteCtx, sess.UserID, w)
		cancel()
		if err != nil {
			log.Errorf("migrate workout %s: %s", w.ID, err)
			result.Failed++
			continue
		}
		result.Workouts++
	}

	for _, pr := range s.listLocalPersonalRecords(ctx) {
		remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		err := s.remote.UpsertPersonalRecord(remoteCtx, sess.UserID, pr)
		cancel()
		if err != nil {
			log.Errorf("migrate personal record %s: %s", pr.Key(), err)
			result.Failed++
			continue
		}
		result.PersonalRecords++
	}

	p, err := localstore.GetJSON[workouts.UserProfile](ctx, s.local, localstore.CollectionProfile, localstore.ProfileKey)
	switch {
	case errors.Is(err, localstore.ErrNotFound):
	case err != nil:
		log.Errorf("migrate profile, local read: %s", err)
		result.Failed++
	default:
		remoteCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		err := s.remote.UpsertProfile(remoteCtx, sess.UserID, *p)
		cancel()
		if err != nil {
			log.Errorf("migrate profile: %s", err)
			result.Failed++
		} else {
			result.Profile++
		}
	}

	log.Infof("migration done: %d/%d workouts, %d records, %d profile, %d failed",
		result.Workouts, result.TotalWorkouts, result.PersonalRecords, result.Profile, result.Failed)

	return result, nil
}

// HasLocalData reports whether any workout, record or profile is stored
// locally.
func (s *Service) HasLocalData(ctx context.Context) (bool, error) {
	for _, c := range []localstore.Collection{
		localstore.CollectionWorkouts,
		localstore.CollectionPersonalRecords,
		localstore.CollectionProfile,
	} {
		exists, err := s.local.Exists(ctx, c)
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// ClearLocalData purges user data from the local store. The sync queue and
// reference caches are kept.
func (s *Service) ClearLocalData(ctx context.Context) error {
	var err error
	for _, c := range []localstore.Collection{
		localstore.CollectionWorkouts,
		localstore.CollectionPersonalRecords,
		localstore.CollectionProfile,
		localstore.CollectionTemplates,
	} {
		err = multierr.Append(err, s.local.Clear(ctx, c))
	}
	return err
}

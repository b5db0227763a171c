package storage

import (
	"context"
	"fmt"

	"github.com/2beens/rerack/internal/auth"
	"github.com/2beens/rerack/internal/gymstats/progress"
	"github.com/2beens/rerack/internal/gymstats/workouts"
	"github.com/2beens/rerack/internal/telemetry/tracing"
)

type FinishResult struct {
	Workout    workouts.Workout          `json:"workout"`
	NewRecords []workouts.PersonalRecord `json:"newRecords"`
	Profile    workouts.UserProfile      `json:"profile"`
}

// RefreshUserProfile recomputes XP, level, streaks and achievements from the
// stored workouts and records, then saves the result.
func (s *Service) RefreshUserProfile(ctx context.Context, sess *auth.Session) workouts.UserProfile {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.refreshUserProfile")
	defer span.End()

	prev := s.GetUserProfile(ctx, sess)
	ws := s.GetAllWorkouts(ctx, sess)
	prs := s.GetAllPersonalRecords(ctx, sess)

	return s.SaveUserProfile(ctx, sess, progress.Recompute(prev, ws, prs, s.now()))
}

// FinishWorkout stamps the end of a workout, saves it, records any new
// personal records and refreshes the profile.
func (s *Service) FinishWorkout(ctx context.Context, sess *auth.Session, w workouts.Workout) (_ *FinishResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.storage.finishWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if w.EndTime == nil {
		w.Finish(s.now())
	}

	known := s.GetAllPersonalRecords(ctx, sess)
	saved, err := s.SaveWorkout(ctx, sess, w)
	if err != nil {
		return nil, fmt.Errorf("finish workout: %w", err)
	}

	newRecords := workouts.DetectPersonalRecords(saved, known)
	for _, pr := range newRecords {
		s.SavePersonalRecord(ctx, sess, pr)
	}

	return &FinishResult{
		Workout:    saved,
		NewRecords: newRecords,
		Profile:    s.RefreshUserProfile(ctx, sess),
	}, nil
}

package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/rerack/internal/gymstats/workouts"
	"github.com/2beens/rerack/internal/telemetry/tracing"
)

var ErrNotFound = errors.New("remote entity not found")

// Repo is the remote relational store. Every query is scoped to a user id.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure remote schema: %w", err)
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *Repo) UpsertWorkout(ctx context.Context, userID string, w workouts.Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.remote.upsertWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", w.ID))

	row, err := workoutToRow(userID, w)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`INSERT INTO workouts
				(id, user_id, name, date, notes, exercises, duration, start_time, end_time, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name, date = excluded.date, notes = excluded.notes,
				exercises = excluded.exercises, duration = excluded.duration,
				start_time = excluded.start_time, end_time = excluded.end_time,
				updated_at = NOW()
			WHERE workouts.user_id = excluded.user_id;`,
		row.ID, row.UserID, row.Name, row.Date, row.Notes, row.Exercises, row.Duration, row.StartTime, row.EndTime,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %s owned by another user", w.ID)
	}
	return nil
}

const workoutColumns = `id, user_id, name, date, notes, exercises, duration, start_time, end_time, created_at, updated_at`

func (r *Repo) GetWorkout(ctx context.Context, userID, id string) (_ *workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.remote.getWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return nil, err
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[workoutRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("collect workout row: %w", err)
	}

	w, err := row.toWorkout()
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWorkouts returns all workouts of the user, newest first.
func (r *Repo) ListWorkouts(ctx context.Context, userID string) (_ []workouts.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.remote.listWorkouts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE user_id = $1 ORDER BY date DESC;`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	workoutRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[workoutRow])
	if err != nil {
		return nil, fmt.Errorf("collect workout rows: %w", err)
	}

	ws := make([]workouts.Workout, 0, len(workoutRows))
	for _, row := range workoutRows {
		w, err := row.toWorkout()
		if err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	span.SetAttributes(attribute.Int("workouts.count", len(ws)))
	return ws, nil
}

// DeleteWorkout removes a workout. Deleting a missing workout is not an error.
func (r *Repo) DeleteWorkout(ctx context.Context, userID, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.remote.deleteWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", id))

	_, err = r.db.Exec(
		ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	return err
}

func (r *Repo) UpsertProfile(ctx context.Context, userID string, p workouts.UserProfile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.remote.upsertProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row, err := profileToRow(userID, p)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO user_profiles
				(user_id, xp, level, rank, achievements, current_streak, longest_streak,
				 total_workouts, total_volume, total_prs, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				xp = excluded.xp, level = excluded.level, rank = excluded.rank,
				achievements = excluded.achievements, current_streak = excluded.current_streak,
				longest_streak = excluded.longest_streak, total_workouts = excluded.total_workouts,
				total_volume = excluded.total_volume, total_prs = excluded.total_prs,
				updated_at = NOW();`,
		row.UserID, row.XP, row.Level, row.Rank, row.Achievements, row.CurrentStreak, row.LongestStreak,
		row.TotalWorkouts, row.TotalVolume, row.TotalPRs,
	)
	return err
}

func (r *Repo) GetProfile(ctx context.Context, userID string) (_ *workouts.UserProfile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.remote.getProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT user_id, xp, level, rank, achievements, current_streak, longest_streak,
				total_workouts, total_volume, total_prs, updated_at
			FROM user_profiles WHERE user_id = $1;`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[profileRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("collect profile row: %w", err)
	}

	p, err := row.toProfile()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) UpsertPersonalRecord(ctx context.Context, userID string, pr workouts.PersonalRecord) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.remote.upsertPersonalRecord")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("pr.key", pr.Key()))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO personal_records (user_id, exercise_id, weight, reps, date)
				VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, exercise_id, weight, reps) DO UPDATE SET date = excluded.date;`,
		userID, pr.ExerciseID, pr.Weight, int32(pr.Reps), pr.Date,
	)
	return err
}

func (r *Repo) ListPersonalRecords(ctx context.Context, userID string) (_ []workouts.PersonalRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.remote.listPersonalRecords")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT exercise_id, weight, reps, date FROM personal_records WHERE user_id = $1 ORDER BY id;`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	prRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[personalRecordRow])
	if err != nil {
		return nil, fmt.Errorf("collect personal record rows: %w", err)
	}

	prs := make([]workouts.PersonalRecord, 0, len(prRows))
	for _, row := range prRows {
		prs = append(prs, row.toPersonalRecord())
	}
	return prs, nil
}

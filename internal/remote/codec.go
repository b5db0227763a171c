package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/rerack/internal/gymstats/workouts"
)

// Rows mirror the snake_case remote schema. All conversion between the
// remote column names and the camelCase entities happens here.

type workoutRow struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Name      string     `db:"name"`
	Date      time.Time  `db:"date"`
	Notes     *string    `db:"notes"`
	Exercises []byte     `db:"exercises"`
	Duration  *int32     `db:"duration"`
	StartTime *time.Time `db:"start_time"`
	EndTime   *time.Time `db:"end_time"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func workoutToRow(userID string, w workouts.Workout) (workoutRow, error) {
	exercises := w.Exercises
	if exercises == nil {
		exercises = []workouts.WorkoutExercise{}
	}
	exercisesJson, err := json.Marshal(exercises)
	if err != nil {
		return workoutRow{}, fmt.Errorf("marshal exercises: %w", err)
	}

	row := workoutRow{
		ID:        w.ID,
		UserID:    userID,
		Name:      w.Name,
		Date:      w.Date,
		Exercises: exercisesJson,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
	}
	if w.Notes != "" {
		notes := w.Notes
		row.Notes = &notes
	}
	if w.Duration != nil {
		d := int32(*w.Duration)
		row.Duration = &d
	}
	return row, nil
}

func (r workoutRow) toWorkout() (workouts.Workout, error) {
	w := workouts.Workout{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Date:      r.Date,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
	if r.Notes != nil {
		w.Notes = *r.Notes
	}
	if r.Duration != nil {
		d := int(*r.Duration)
		w.Duration = &d
	}
	if len(r.Exercises) > 0 {
		if err := json.Unmarshal(r.Exercises, &w.Exercises); err != nil {
			return workouts.Workout{}, fmt.Errorf("unmarshal exercises of workout %s: %w", r.ID, err)
		}
	}
	return w, nil
}

type profileRow struct {
	UserID        string    `db:"user_id"`
	XP            int32     `db:"xp"`
	Level         int32     `db:"level"`
	Rank          string    `db:"rank"`
	Achievements  []byte    `db:"achievements"`
	CurrentStreak int32     `db:"current_streak"`
	LongestStreak int32     `db:"longest_streak"`
	TotalWorkouts int32     `db:"total_workouts"`
	TotalVolume   float64   `db:"total_volume"`
	TotalPRs      int32     `db:"total_prs"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func profileToRow(userID string, p workouts.UserProfile) (profileRow, error) {
	achievements := p.Achievements
	if achievements == nil {
		achievements = []workouts.Achievement{}
	}
	achievementsJson, err := json.Marshal(achievements)
	if err != nil {
		return profileRow{}, fmt.Errorf("marshal achievements: %w", err)
	}
	return profileRow{
		UserID:        userID,
		XP:            int32(p.XP),
		Level:         int32(p.Level),
		Rank:          string(p.Rank),
		Achievements:  achievementsJson,
		CurrentStreak: int32(p.CurrentStreak),
		LongestStreak: int32(p.LongestStreak),
		TotalWorkouts: int32(p.TotalWorkouts),
		TotalVolume:   p.TotalVolume,
		TotalPRs:      int32(p.TotalPRs),
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

func (r profileRow) toProfile() (workouts.UserProfile, error) {
	p := workouts.UserProfile{
		XP:            int(r.XP),
		Level:         int(r.Level),
		Rank:          workouts.Rank(r.Rank),
		CurrentStreak: int(r.CurrentStreak),
		LongestStreak: int(r.LongestStreak),
		TotalWorkouts: int(r.TotalWorkouts),
		TotalVolume:   r.TotalVolume,
		TotalPRs:      int(r.TotalPRs),
		UpdatedAt:     r.UpdatedAt,
	}
	p.Achievements = []workouts.Achievement{}
	if len(r.Achievements) > 0 {
		if err := json.Unmarshal(r.Achievements, &p.Achievements); err != nil {
			return workouts.UserProfile{}, fmt.Errorf("unmarshal achievements: %w", err)
		}
	}
	return p, nil
}

type personalRecordRow struct {
	ExerciseID string    `db:"exercise_id"`
	Weight     float64   `db:"weight"`
	Reps       int32     `db:"reps"`
	Date       time.Time `db:"date"`
}

func (r personalRecordRow) toPersonalRecord() workouts.PersonalRecord {
	return workouts.PersonalRecord{
		ExerciseID: r.ExerciseID,
		Weight:     r.Weight,
		Reps:       int(r.Reps),
		Date:       r.Date,
	}
}

package workouts

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/rerack/pkg"
)

var (
	ErrEmptyName      = errors.New("workout name is empty")
	ErrNegativeValues = errors.New("negative reps or weight")
)

type ExerciseSet struct {
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
	Completed bool    `json:"completed"`
}

// Volume is weight × reps for a completed set, zero otherwise.
func (s ExerciseSet) Volume() float64 {
	if !s.Completed {
		return 0
	}
	return s.Weight * float64(s.Reps)
}

type WorkoutExercise struct {
	ExerciseID string        `json:"exerciseId"`
	Sets       []ExerciseSet `json:"sets"`
	Notes      string        `json:"notes,omitempty"`
}

func (e WorkoutExercise) Volume() float64 {
	var v float64
	for _, s := range e.Sets {
		v += s.Volume()
	}
	return v
}

type Workout struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId,omitempty"`
	Name      string            `json:"name"`
	Date      time.Time         `json:"date"`
	Notes     string            `json:"notes,omitempty"`
	Exercises []WorkoutExercise `json:"exercises"`
	Duration  *int              `json:"duration,omitempty"` // minutes
	StartTime *time.Time        `json:"startTime,omitempty"`
	EndTime   *time.Time        `json:"endTime,omitempty"`
}

// NewWorkoutID builds a client side id from the creation time in
// milliseconds and a random suffix.
func NewWorkoutID(now time.Time) string {
	suffix, err := pkg.GenerateRandomString(6)
	if err != nil {
		suffix = strconv.FormatInt(now.UnixNano()%1_000_000, 36)
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

// ComputeDuration returns the whole minutes elapsed between start and end.
func ComputeDuration(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// Validate rejects workouts that must not be saved. An empty name is the only
// blocking problem a user can produce from the log screen.
func (w *Workout) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	for _, e := range w.Exercises {
		for _, s := range e.Sets {
			if s.Reps < 0 || s.Weight < 0 {
				return fmt.Errorf("exercise %s: %w", e.ExerciseID, ErrNegativeValues)
			}
		}
	}
	return nil
}

// Finish stamps the end time and derives the duration from the start time.
func (w *Workout) Finish(end time.Time) {
	w.EndTime = &end
	if w.StartTime != nil {
		d := ComputeDuration(*w.StartTime, end)
		w.Duration = &d
	}
}

func (w *Workout) Volume() float64 {
	var v float64
	for _, e := range w.Exercises {
		v += e.Volume()
	}
	return v
}

func (w *Workout) SetsCount() int {
	count := 0
	for _, e := range w.Exercises {
		count += len(e.Sets)
	}
	return count
}

// SortByDateDesc sorts workouts newest first.
func SortByDateDesc(ws []Workout) {
	sort.SliceStable(ws, func(i, j int) bool {
		return ws[i].Date.After(ws[j].Date)
	})
}

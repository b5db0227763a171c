package aigen

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

const DefaultGoal = "Hypertrophy"

var ErrInvalidParams = errors.New("invalid generation params")

// ErrBadResponse is returned when the model output is not a usable workout.
var ErrBadResponse = errors.New("failed to parse ai response")

type Params struct {
	SelectedMuscles []string `json:"selectedMuscles"`
	Duration        int      `json:"duration"`
	Level           string   `json:"level"`
	Equipment       string   `json:"equipment"`
	Goal            string   `json:"goal,omitempty"`
}

func (p Params) Validate() error {
	if len(p.SelectedMuscles) == 0 {
		return fmt.Errorf("%w: no muscles selected", ErrInvalidParams)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidParams)
	}
	if strings.TrimSpace(p.Level) == "" {
		return fmt.Errorf("%w: level empty", ErrInvalidParams)
	}
	return nil
}

func (p Params) goal() string {
	if p.Goal == "" {
		return DefaultGoal
	}
	return p.Goal
}

// CacheKey does not depend on the order muscles were selected in.
func (p Params) CacheKey() string {
	muscles := slices.Clone(p.SelectedMuscles)
	slices.Sort(muscles)
	return fmt.Sprintf(
		"workout_%s_%d_%s_%s_%s",
		strings.Join(muscles, "_"), p.Duration, p.Level, p.Equipment, p.goal(),
	)
}

type Exercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"restSeconds"`
	Notes       string `json:"notes,omitempty"`
}

type MuscleGroup struct {
	Name      string     `json:"name"`
	TotalSets int        `json:"totalSets"`
	Note      string     `json:"note,omitempty"`
	Exercises []Exercise `json:"exercises"`
}

type Workout struct {
	WorkoutName   string        `json:"workoutName"`
	EstimatedTime int           `json:"estimatedTime"`
	MuscleGroups  []MuscleGroup `json:"muscleGroups"`
	Warmup        string        `json:"warmup,omitempty"`
	Tips          []string      `json:"tips,omitempty"`
}

func buildPrompt(p Params) string {
	var sb strings.Builder
	sb.WriteString("Create a gym workout and answer with JSON only.\n")
	fmt.Fprintf(&sb, "Selected muscle groups: %s\n", strings.Join(p.SelectedMuscles, ", "))
	fmt.Fprintf(&sb, "Duration: %d minutes\n", p.Duration)
	fmt.Fprintf(&sb, "Level: %s\n", p.Level)
	fmt.Fprintf(&sb, "Equipment available: %s\n", p.Equipment)
	fmt.Fprintf(&sb, "Goal: %s\n", p.goal())
	fmt.Fprintf(&sb, "Aim for at most %d working sets.\n", p.Duration/2)
	sb.WriteString(`Use this shape: {"workoutName": string, "estimatedTime": number, ` +
		`"muscleGroups": [{"name": string, "totalSets": number, "note": string, ` +
		`"exercises": [{"name": string, "sets": number, "reps": string, "restSeconds": number, "notes": string}]}], ` +
		`"warmup": string, "tips": [string]}`)
	return sb.String()
}

// parseWorkout accepts raw JSON or JSON wrapped in a markdown code fence.
func parseWorkout(text string) (*Workout, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}

	var workout Workout
	if err := json.Unmarshal([]byte(cleaned), &workout); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, err)
	}
	if workout.WorkoutName == "" || workout.MuscleGroups == nil {
		return nil, fmt.Errorf("%w: invalid workout structure", ErrBadResponse)
	}

	return &workout, nil
}

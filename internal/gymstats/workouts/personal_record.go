package workouts

import (
	"fmt"
	"strconv"
	"time"
)

type PersonalRecord struct {
	ExerciseID string    `json:"exerciseId"`
	Weight     float64   `json:"weight"`
	Reps       int       `json:"reps"`
	Date       time.Time `json:"date"`
}

// Key identifies a record by exercise, weight and reps.
func (pr PersonalRecord) Key() string {
	return fmt.Sprintf("%s-%s-%d", pr.ExerciseID, strconv.FormatFloat(pr.Weight, 'f', -1, 64), pr.Reps)
}

func (pr PersonalRecord) Score() float64 {
	return pr.Weight * float64(pr.Reps)
}

// BestPersonalRecord returns the record for the exercise with the highest
// weight × reps. On ties the first one seen wins.
func BestPersonalRecord(records []PersonalRecord, exerciseID string) (PersonalRecord, bool) {
	var (
		best  PersonalRecord
		found bool
	)
	for _, pr := range records {
		if pr.ExerciseID != exerciseID {
			continue
		}
		if !found || pr.Score() > best.Score() {
			best = pr
			found = true
		}
	}
	return best, found
}

// DetectPersonalRecords returns the completed sets of w that beat the best
// known record of their exercise.
func DetectPersonalRecords(w Workout, known []PersonalRecord) []PersonalRecord {
	bestByExercise := make(map[string]float64)
	for _, pr := range known {
		if s := pr.Score(); s > bestByExercise[pr.ExerciseID] {
			bestByExercise[pr.ExerciseID] = s
		}
	}

	var newRecords []PersonalRecord
	for _, e := range w.Exercises {
		for _, s := range e.Sets {
			if !s.Completed || s.Reps <= 0 || s.Weight <= 0 {
				continue
			}
			pr := PersonalRecord{
				ExerciseID: e.ExerciseID,
				Weight:     s.Weight,
				Reps:       s.Reps,
				Date:       w.Date,
			}
			if pr.Score() > bestByExercise[e.ExerciseID] {
				bestByExercise[e.ExerciseID] = pr.Score()
				newRecords = append(newRecords, pr)
			}
		}
	}
	return newRecords
}

package workouts

import "time"

type Rank string

const (
	RankBeginner     Rank = "beginner"
	RankIntermediate Rank = "intermediate"
	RankAdvanced     Rank = "advanced"
	RankElite        Rank = "elite"
	RankLegend       Rank = "legend"
)

type AchievementID string

const (
	AchievementFirstWorkout AchievementID = "first_workout"
	AchievementStreak7      AchievementID = "streak_7"
	AchievementStreak30     AchievementID = "streak_30"
	AchievementWorkouts100  AchievementID = "workouts_100"
	AchievementPRMachine    AchievementID = "pr_machine"
)

type Achievement struct {
	ID          AchievementID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Requirement int           `json:"requirement"`
	UnlockedAt  *time.Time    `json:"unlockedAt,omitempty"`
}

type UserProfile struct {
	XP            int           `json:"xp"`
	Level         int           `json:"level"`
	Rank          Rank          `json:"rank"`
	Achievements  []Achievement `json:"achievements"`
	CurrentStreak int           `json:"currentStreak"`
	LongestStreak int           `json:"longestStreak"`
	TotalWorkouts int           `json:"totalWorkouts"`
	TotalVolume   float64       `json:"totalVolume"`
	TotalPRs      int           `json:"totalPRs"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func DefaultProfile() UserProfile {
	return UserProfile{
		Level:        1,
		Rank:         RankBeginner,
		Achievements: []Achievement{},
	}
}

func (p UserProfile) HasAchievement(id AchievementID) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Template is a reusable workout layout. Templates are kept locally only.
type Template struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Exercises []WorkoutExercise `json:"exercises"`
	CreatedAt time.Time         `json:"createdAt"`
}

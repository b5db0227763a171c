package progress

import (
	"time"

	"github.com/2beens/rerack/internal/gymstats/workouts"
)

type achievementDefinition struct {
	workouts.Achievement
	unlocked func(p workouts.UserProfile) bool
}

var definitions = []achievementDefinition{
	{
		Achievement: workouts.Achievement{
			ID:          workouts.AchievementFirstWorkout,
			Name:        "First Steps",
			Description: "Complete your first workout",
			Requirement: 1,
		},
		unlocked: func(p workouts.UserProfile) bool { return p.TotalWorkouts >= 1 },
	},
	{
		Achievement: workouts.Achievement{
			ID:          workouts.AchievementStreak7,
			Name:        "Week Warrior",
			Description: "Maintain a 7-day workout streak",
			Requirement: 7,
		},
		unlocked: func(p workouts.UserProfile) bool { return p.CurrentStreak >= 7 },
	},
	{
		Achievement: workouts.Achievement{
			ID:          workouts.AchievementStreak30,
			Name:        "Month Master",
			Description: "Maintain a 30-day workout streak",
			Requirement: 30,
		},
		unlocked: func(p workouts.UserProfile) bool { return p.CurrentStreak >= 30 },
	},
	{
		Achievement: workouts.Achievement{
			ID:          workouts.AchievementWorkouts100,
			Name:        "Century Club",
			Description: "Complete 100 workouts",
			Requirement: 100,
		},
		unlocked: func(p workouts.UserProfile) bool { return p.TotalWorkouts >= 100 },
	},
	{
		Achievement: workouts.Achievement{
			ID:          workouts.AchievementPRMachine,
			Name:        "PR Machine",
			Description: "Hit 10 personal records",
			Requirement: 10,
		},
		unlocked: func(p workouts.UserProfile) bool { return p.TotalPRs >= 10 },
	},
}

// NewlyUnlocked returns achievements the profile qualifies for but does not
// have yet, stamped with the given unlock time.
func NewlyUnlocked(p workouts.UserProfile, now time.Time) []workouts.Achievement {
	var unlocked []workouts.Achievement
	for _, def := range definitions {
		if p.HasAchievement(def.ID) || !def.unlocked(p) {
			continue
		}
		a := def.Achievement
		unlockedAt := now
		a.UnlockedAt = &unlockedAt
		unlocked = append(unlocked, a)
	}
	return unlocked
}

// Recompute rebuilds the profile from the source workouts and records.
// Earned achievements keep their unlock time, and the longest streak
// never decreases.
func Recompute(prev workouts.UserProfile, ws []workouts.Workout, prs []workouts.PersonalRecord, now time.Time) workouts.UserProfile {
	xp := 0
	for _, w := range ws {
		xp += WorkoutXP(w)
	}

	p := workouts.UserProfile{
		XP:            xp,
		Level:         Level(xp),
		Achievements:  append([]workouts.Achievement{}, prev.Achievements...),
		CurrentStreak: Streak(ws, now),
		LongestStreak: max(prev.LongestStreak, LongestStreak(ws, now.Location())),
		TotalWorkouts: len(ws),
		TotalVolume:   TotalVolume(ws),
		TotalPRs:      len(prs),
		UpdatedAt:     now,
	}
	p.Rank = RankFromLevel(p.Level)
	p.Achievements = append(p.Achievements, NewlyUnlocked(p, now)...)
	return p
}

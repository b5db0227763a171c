package progress

import (
	"time"

	"github.com/2beens/rerack/internal/gymstats/workouts"
)

const XPPerLevel = 1000

func Level(xp int) int {
	return xp/XPPerLevel + 1
}

// XPForNextLevel is the total XP at which the next level starts.
func XPForNextLevel(xp int) int {
	return Level(xp) * XPPerLevel
}

// LevelProgress is the progress through the current level, 0-100.
func LevelProgress(xp int) float64 {
	inLevel := xp - (Level(xp)-1)*XPPerLevel
	return float64(inLevel) / XPPerLevel * 100
}

func RankFromLevel(level int) workouts.Rank {
	switch {
	case level >= 50:
		return workouts.RankLegend
	case level >= 30:
		return workouts.RankElite
	case level >= 15:
		return workouts.RankAdvanced
	case level >= 5:
		return workouts.RankIntermediate
	default:
		return workouts.RankBeginner
	}
}

func WorkoutXP(w workouts.Workout) int {
	xp := 50
	xp += len(w.Exercises) * 10
	xp += w.SetsCount() * 5
	if w.Duration != nil && *w.Duration >= 30 {
		xp += min(*w.Duration, 120)
	}
	return xp
}

func day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Streak counts consecutive calendar days with at least one workout, ending
// today. No workout today means no streak.
func Streak(ws []workouts.Workout, today time.Time) int {
	loc := today.Location()
	days := make(map[time.Time]bool, len(ws))
	for _, w := range ws {
		days[day(w.Date, loc)] = true
	}

	streak := 0
	for d := day(today, loc); days[d]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// LongestStreak is the longest run of consecutive calendar days with workouts.
func LongestStreak(ws []workouts.Workout, loc *time.Location) int {
	days := make(map[time.Time]bool, len(ws))
	for _, w := range ws {
		days[day(w.Date, loc)] = true
	}

	longest := 0
	for d := range days {
		// only start counting at the first day of a run
		if days[d.AddDate(0, 0, -1)] {
			continue
		}
		run := 0
		for cur := d; days[cur]; cur = cur.AddDate(0, 0, 1) {
			run++
		}
		longest = max(longest, run)
	}
	return longest
}

func TotalVolume(ws []workouts.Workout) float64 {
	var v float64
	for i := range ws {
		v += ws[i].Volume()
	}
	return v
}

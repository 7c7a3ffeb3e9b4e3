package progress

import (
	"math"

	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

// Level grows with the day on a log2 curve: day 1 is level 1, day 2 is
// level 2, day 4 is level 3, and so on.
func Level(day int) float64 {
	if day < 1 {
		day = 1
	}
	return 1 + math.Log2(float64(day))
}

// LevelProgress splits the level into the displayed level number and the
// percentage of the way to the next one.
func LevelProgress(day int) (int, float64) {
	level := Level(day)
	floored := math.Floor(level)
	return int(floored), (level - floored) * 100
}

// Accuracy is the share of attempts that completed a day. It is 0 until a
// day has been completed.
func Accuracy(attempts, day int) float64 {
	completed := day - 1
	if completed <= 0 || attempts <= 0 {
		return 0
	}
	return math.Min(1, float64(completed)/float64(attempts))
}

// Streak is the number of consecutive completed days.
func Streak(day int) int {
	if day < 1 {
		return 0
	}
	return day - 1
}

// NewWordsSeen counts the words of every completed day.
func NewWordsSeen(plan vocabulary.Plan, day int) int {
	return plan.WordsThrough(day - 1)
}

// Stats is what the dashboard shows.
type Stats struct {
	Streak         int
	Level          int
	LevelRemainder float64
	WordsSeen      int
	Accuracy       float64
	Attempts       int
}

// StatsOf computes the dashboard stats for the progress.
func StatsOf(plan vocabulary.Plan, p Progress) Stats {
	level, remainder := LevelProgress(p.Day)
	return Stats{
		Streak:         Streak(p.Day),
		Level:          level,
		LevelRemainder: remainder,
		WordsSeen:      NewWordsSeen(plan, p.Day),
		Accuracy:       Accuracy(p.Attempts, p.Day),
		Attempts:       p.Attempts,
	}
}

package progress

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	started := now.Add(-25 * time.Hour)

	tests := []struct {
		name        string
		progress    Progress
		want        Progress
		wantExpired bool
	}{
		{
			name: "expired challenge is reset and recorded",
			progress: Progress{
				Day:      3,
				Datetime: timePtr(started),
				History:  map[string]int{},
				Attempts: 4,
			},
			want: Progress{
				Day:     1,
				History: map[string]int{"Mar 09 2025": 3},
			},
			wantExpired: true,
		},
		{
			name: "existing history is kept",
			progress: Progress{
				Day:      5,
				Datetime: timePtr(started),
				History:  map[string]int{"Jan 01 2025": 2},
				Attempts: 7,
			},
			want: Progress{
				Day:     1,
				History: map[string]int{"Jan 01 2025": 2, "Mar 09 2025": 5},
			},
			wantExpired: true,
		},
		{
			name: "active challenge within the window",
			progress: Progress{
				Day:      3,
				Datetime: timePtr(now.Add(-23 * time.Hour)),
				History:  map[string]int{},
				Attempts: 1,
			},
			want: Progress{
				Day:      3,
				Datetime: timePtr(now.Add(-23 * time.Hour)),
				History:  map[string]int{},
				Attempts: 1,
			},
		},
		{
			name: "exactly 24 hours is still active",
			progress: Progress{
				Day:      2,
				Datetime: timePtr(now.Add(-ChallengeWindow)),
				History:  map[string]int{},
			},
			want: Progress{
				Day:      2,
				Datetime: timePtr(now.Add(-ChallengeWindow)),
				History:  map[string]int{},
			},
		},
		{
			name:     "idle progress is untouched",
			progress: Default(),
			want:     Default(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, expired := Evaluate(tt.progress, now)
			assert.Equal(t, tt.wantExpired, expired)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	input := Progress{Day: 3, Datetime: timePtr(now.Add(-48 * time.Hour)), History: map[string]int{}}

	_, expired := Evaluate(input, now)
	require.True(t, expired)
	assert.Empty(t, input.History)
	assert.Equal(t, 3, input.Day)
}

func TestEvaluate_Idempotent(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	first, expired := Evaluate(Progress{Day: 3, Datetime: timePtr(now.Add(-25 * time.Hour)), History: map[string]int{}}, now)
	require.True(t, expired)

	second, expired := Evaluate(first, now)
	assert.False(t, expired)
	assert.Equal(t, first, second)
	assert.Len(t, second.History, 1)
}

func TestStateOf(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, StateIdle, StateOf(Default(), now))
	assert.Equal(t, StateActive, StateOf(Progress{Day: 2, Datetime: timePtr(now)}, now))
	assert.Equal(t, StateExpired, StateOf(Progress{Day: 2, Datetime: timePtr(now.Add(-25 * time.Hour))}, now))
	assert.Equal(t, "expired", StateExpired.String())
}

func TestComplete(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	before := Progress{Day: 5, Datetime: timePtr(now.Add(-time.Hour)), History: map[string]int{"Jan 01 2025": 2}, Attempts: 6}

	got := Complete(before, now)
	assert.Equal(t, 6, got.Day)
	require.NotNil(t, got.Datetime)
	assert.Equal(t, now, *got.Datetime)
	assert.Equal(t, 6, got.Attempts)
	assert.Equal(t, before.History, got.History)
	assert.Equal(t, 5, before.Day)
}

func TestIncrementAttempts(t *testing.T) {
	got := IncrementAttempts(Progress{Day: 2, Attempts: 2, History: map[string]int{}})
	assert.Equal(t, 3, got.Attempts)
	assert.Equal(t, 2, got.Day)
}

func TestRemaining(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, ChallengeWindow, Remaining(Complete(Default(), now), now))
	assert.Equal(t, time.Hour, Remaining(Progress{Day: 2, Datetime: timePtr(now.Add(-23 * time.Hour))}, now))
	assert.Equal(t, time.Duration(0), Remaining(Progress{Day: 2, Datetime: timePtr(now.Add(-25 * time.Hour))}, now))
	assert.Equal(t, time.Duration(0), Remaining(Default(), now))
}

func TestFormatHistoryKey(t *testing.T) {
	key := FormatHistoryKey(time.Date(2025, 1, 5, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "Jan 05 2025", key)

	parsed, err := ParseHistoryKey(key)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), parsed)
}

func TestLevel(t *testing.T) {
	level, remainder := LevelProgress(1)
	assert.Equal(t, 1, level)
	assert.Equal(t, 0.0, remainder)

	level, remainder = LevelProgress(2)
	assert.Equal(t, 2, level)
	assert.Equal(t, 0.0, remainder)

	level, remainder = LevelProgress(3)
	assert.Equal(t, 2, level)
	assert.InDelta(t, 58.496, remainder, 0.001)

	previous := Level(1)
	for day := 2; day <= 1000; day++ {
		current := Level(day)
		assert.Greater(t, current, previous, "day %d", day)
		previous = current
	}

	assert.Equal(t, Level(1), Level(0))
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		day      int
		want     float64
	}{
		{name: "no completed day", attempts: 5, day: 1, want: 0},
		{name: "no attempts", attempts: 0, day: 1, want: 0},
		{name: "completed days without recorded attempts", attempts: 0, day: 4, want: 0},
		{name: "every attempt completed a day", attempts: 3, day: 4, want: 1},
		{name: "half the attempts completed a day", attempts: 6, day: 4, want: 0.5},
		{name: "more days than attempts is capped", attempts: 1, day: 10, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Accuracy(tt.attempts, tt.day), 1e-9)
		})
	}

	for attempts := 0; attempts <= 50; attempts++ {
		for day := 1; day <= 50; day++ {
			got := Accuracy(attempts, day)
			assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
		assert.Equal(t, 0.0, Accuracy(attempts, 1))
	}
}

func TestStatsOf(t *testing.T) {
	plan := vocabulary.Plan{1: {0, 1, 2}, 2: {3, 4, 5}, 3: {6, 7}}

	got := StatsOf(plan, Progress{Day: 3, Attempts: 4, History: map[string]int{}})
	assert.Equal(t, 2, got.Streak)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 6, got.WordsSeen)
	assert.InDelta(t, 0.5, got.Accuracy, 1e-9)
	assert.Equal(t, 4, got.Attempts)

	assert.Equal(t, 0, NewWordsSeen(plan, 1))
	assert.Equal(t, 0, Streak(0))
}

func TestFailures(t *testing.T) {
	got := Failures(map[string]int{
		"Mar 09 2025": 3,
		"legacy":      2,
		"Feb 28 2025": 5,
		"Jan 02 2026": 4,
	})

	keys := make([]string, 0, len(got))
	for _, f := range got {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"Feb 28 2025", "Mar 09 2025", "Jan 02 2026", "legacy"}, keys)
	assert.Equal(t, 5, got[0].Day)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.True(t, got[3].Date.IsZero())
	assert.Empty(t, Failures(nil))
}

// Package progress tracks the daily challenge: the current day, its 24-hour
// window, the attempt counter and the history of expired challenges.
package progress

import (
	"maps"
	"sort"
	"time"
)

// ChallengeWindow is how long a day stays active after the previous one was completed.
const ChallengeWindow = 24 * time.Hour

// historyKeyLayout matches the "Mon DD YYYY" part of a JavaScript Date string,
// which is how failed challenges have always been keyed.
const historyKeyLayout = "Jan 02 2006"

// Progress is one learner's snapshot.
type Progress struct {
	Day      int
	Datetime *time.Time
	History  map[string]int
	Attempts int
}

// Default returns the progress of a learner who has not started.
func Default() Progress {
	return Progress{
		Day:     1,
		History: map[string]int{},
	}
}

// Clone returns a deep copy.
func (p Progress) Clone() Progress {
	clone := p
	if p.Datetime != nil {
		datetime := *p.Datetime
		clone.Datetime = &datetime
	}
	clone.History = make(map[string]int, len(p.History))
	maps.Copy(clone.History, p.History)
	return clone
}

// State is the lifecycle state of the current challenge.
type State int

const (
	StateIdle State = iota
	StateActive
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// StateOf classifies the progress at now.
func StateOf(p Progress, now time.Time) State {
	if p.Datetime == nil {
		return StateIdle
	}
	if p.Day > 1 && now.Sub(*p.Datetime) > ChallengeWindow {
		return StateExpired
	}
	return StateActive
}

// Evaluate applies the expiry rule. When the challenge window has passed, the
// unfinished day is recorded in the history under the start of the window and
// the learner starts over. It reports whether a reset happened.
func Evaluate(p Progress, now time.Time) (Progress, bool) {
	if StateOf(p, now) != StateExpired {
		return p, false
	}

	next := p.Clone()
	next.History[FormatHistoryKey(*p.Datetime)] = p.Day
	next.Day = 1
	next.Datetime = nil
	next.Attempts = 0
	return next, true
}

// Complete advances to the next day and opens a new window at now.
func Complete(p Progress, now time.Time) Progress {
	next := p.Clone()
	next.Day = p.Day + 1
	next.Datetime = &now
	return next
}

// IncrementAttempts counts one more challenge attempt.
func IncrementAttempts(p Progress) Progress {
	next := p.Clone()
	next.Attempts = p.Attempts + 1
	return next
}

// Remaining returns the time left before the current challenge expires.
func Remaining(p Progress, now time.Time) time.Duration {
	if StateOf(p, now) != StateActive {
		return 0
	}
	remaining := p.Datetime.Add(ChallengeWindow).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatHistoryKey formats the start of a failed challenge as a history key.
func FormatHistoryKey(t time.Time) string {
	return t.Format(historyKeyLayout)
}

// ParseHistoryKey parses a history key back into a date.
func ParseHistoryKey(key string) (time.Time, error) {
	return time.Parse(historyKeyLayout, key)
}

// Failure is one missed challenge from the history.
type Failure struct {
	Key string
	// Date is zero when Key is not a date.
	Date time.Time
	Day  int
}

// Failures lists the history oldest first. Keys that are not dates sort last.
func Failures(history map[string]int) []Failure {
	failures := make([]Failure, 0, len(history))
	for key, day := range history {
		date, err := ParseHistoryKey(key)
		if err != nil {
			date = time.Time{}
		}
		failures = append(failures, Failure{Key: key, Date: date, Day: day})
	}
	sort.Slice(failures, func(i, j int) bool {
		a, b := failures[i], failures[j]
		if a.Date.IsZero() != b.Date.IsZero() {
			return !a.Date.IsZero()
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Key < b.Key
	})
	return failures
}

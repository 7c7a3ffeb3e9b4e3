package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/at-ishikawa/wordday/internal/progress"
	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

// ErrChallengeFailed is returned when an answer was wrong.
var ErrChallengeFailed = errors.New("challenge failed")

// Tracker is the part of progress.Tracker a challenge needs.
type Tracker interface {
	Snapshot(ctx context.Context) (progress.Progress, error)
	IncrementAttempts(ctx context.Context) (progress.Progress, error)
	CompleteDay(ctx context.Context) (progress.Progress, error)
}

var _ Tracker = (*progress.Tracker)(nil)

// Challenge asks for every word of the current day from its definition.
type Challenge struct {
	tracker Tracker
	table   vocabulary.Table
	plan    vocabulary.Plan
	in      *bufio.Reader
	printer *Printer
}

// NewChallenge creates a Challenge reading answers from in.
func NewChallenge(tracker Tracker, table vocabulary.Table, plan vocabulary.Plan, in io.Reader, printer *Printer) *Challenge {
	return &Challenge{
		tracker: tracker,
		table:   table,
		plan:    plan,
		in:      bufio.NewReader(in),
		printer: printer,
	}
}

// Run counts one attempt, then asks for each word. The day is completed when
// every answer is right; the first wrong answer ends the run with
// ErrChallengeFailed.
func (c *Challenge) Run(ctx context.Context) (progress.Progress, error) {
	current, err := c.tracker.Snapshot(ctx)
	if err != nil {
		c.printer.Warning("could not save the reset of an expired challenge: %v", err)
	}
	entries, err := c.plan.Words(c.table, current.Day)
	if err != nil {
		return current, err
	}
	for _, entry := range entries {
		if strings.TrimSpace(entry.Word) == "" {
			return current, fmt.Errorf("day %d: index %d: %w", current.Day, entry.Index, vocabulary.ErrEmptyWord)
		}
	}

	if current, err = c.tracker.IncrementAttempts(ctx); err != nil {
		return current, err
	}

	for i, entry := range entries {
		fmt.Fprintf(c.printer.out, "(%d/%d) %s\n> ", i+1, len(entries), hint(entry))
		answer, err := c.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && answer != "") {
			return current, fmt.Errorf("read answer: %w", err)
		}
		if !strings.EqualFold(strings.TrimSpace(answer), entry.Word) {
			c.printer.red.Fprintf(c.printer.out, "Not quite. The word was %q.\n", entry.Word)
			return current, ErrChallengeFailed
		}
		c.printer.green.Fprintln(c.printer.out, "Correct!")
	}

	return c.tracker.CompleteDay(ctx)
}

func hint(entry vocabulary.Entry) string {
	if entry.Definition != "" {
		return entry.Definition
	}
	runes := []rune(entry.Word)
	if len(runes) == 0 {
		return "(no hint)"
	}
	return fmt.Sprintf("%c%s (%d letters)", runes[0], strings.Repeat("_", len(runes)-1), len(runes))
}

// Package cli renders progress in the terminal and runs the daily challenge
// interactively.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/at-ishikawa/wordday/internal/progress"
	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

// Printer writes progress to a terminal.
type Printer struct {
	out    io.Writer
	bold   *color.Color
	faint  *color.Color
	green  *color.Color
	yellow *color.Color
	red    *color.Color
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		bold:   color.New(color.Bold),
		faint:  color.New(color.Faint),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
	}
}

// Greeting prints who is studying.
func (p *Printer) Greeting(name string, signedIn bool) {
	if signedIn {
		fmt.Fprintf(p.out, "Hello, %s\n", p.bold.Sprint(name))
		return
	}
	fmt.Fprintf(p.out, "Hello, %s %s\n", p.bold.Sprint(name), p.faint.Sprint("(local progress)"))
}

// Status prints the current challenge and the dashboard stats.
func (p *Printer) Status(current progress.Progress, stats progress.Stats, now time.Time) {
	fmt.Fprintf(p.out, "Day %s\n", p.bold.Sprint(current.Day))

	switch progress.StateOf(current, now) {
	case progress.StateIdle:
		fmt.Fprintln(p.out, "No challenge in progress. Complete today's words to start a streak.")
	case progress.StateActive:
		remaining := progress.Remaining(current, now).Truncate(time.Minute)
		fmt.Fprintf(p.out, "Complete the next day within %s\n", p.yellow.Sprint(remaining))
	case progress.StateExpired:
		fmt.Fprintln(p.out, p.red.Sprint("The challenge window has passed."))
	}

	fmt.Fprintf(p.out, "Streak:     %d\n", stats.Streak)
	fmt.Fprintf(p.out, "Level:      %d (%.0f%% to next)\n", stats.Level, stats.LevelRemainder)
	fmt.Fprintf(p.out, "Words seen: %d\n", stats.WordsSeen)
	fmt.Fprintf(p.out, "Accuracy:   %.1f%%\n", stats.Accuracy*100)
	fmt.Fprintf(p.out, "Attempts:   %d\n", stats.Attempts)
}

// Words prints the words of a day.
func (p *Printer) Words(day int, entries []vocabulary.Entry) {
	fmt.Fprintf(p.out, "Words for day %d\n", day)
	for _, entry := range entries {
		if entry.Definition == "" {
			fmt.Fprintf(p.out, "  %s\n", p.bold.Sprint(entry.Word))
			continue
		}
		fmt.Fprintf(p.out, "  %s: %s\n", p.bold.Sprint(entry.Word), entry.Definition)
	}
}

// History prints the missed challenges oldest first.
func (p *Printer) History(failures []progress.Failure) {
	if len(failures) == 0 {
		fmt.Fprintln(p.out, p.green.Sprint("No missed challenges."))
		return
	}
	fmt.Fprintln(p.out, "Missed challenges")
	for _, failure := range failures {
		fmt.Fprintf(p.out, "  %s  reached day %d\n", failure.Key, failure.Day)
	}
}

// Success prints a confirmation.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.out, p.green.Sprintf(format, args...))
}

// Warning prints a problem that did not stop the command.
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.out, p.yellow.Sprintf(format, args...))
}

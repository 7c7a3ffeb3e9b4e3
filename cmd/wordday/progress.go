package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/wordday/internal/cli"
	"github.com/at-ishikawa/wordday/internal/progress"
	"github.com/at-ishikawa/wordday/internal/session"
)

// snapshot returns the current progress. A failed save of an expiry reset is
// reported and the reset progress is still shown.
func snapshot(ctx context.Context, rt *runtime, sess *session.Session) progress.Progress {
	p, err := sess.Tracker.Snapshot(ctx)
	if err != nil {
		rt.printer.Warning("The expired challenge was reset but not saved: %v", err)
	}
	return p
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current day, the challenge window and the stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				p := snapshot(ctx, rt, sess)
				rt.printer.Greeting(rt.displayName(ctx, sess), sess.SignedIn())
				rt.printer.Status(p, progress.StatsOf(rt.app.Plan, p), time.Now())
				return nil
			})
		},
	}
}

func newWordsCommand() *cobra.Command {
	var day int
	command := &cobra.Command{
		Use:   "words",
		Short: "Show the words of a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				if day == 0 {
					day = snapshot(ctx, rt, sess).Day
				}
				entries, err := rt.app.Plan.Words(rt.app.Table, day)
				if err != nil {
					return err
				}
				rt.printer.Words(day, entries)
				return nil
			})
		},
	}
	command.Flags().IntVar(&day, "day", 0, "day to show (defaults to the current day)")
	return command
}

func newChallengeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "challenge",
		Short: "Answer today's words to complete the day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				challenge := cli.NewChallenge(sess.Tracker, rt.app.Table, rt.app.Plan, os.Stdin, rt.printer)
				p, err := challenge.Run(ctx)
				if errors.Is(err, cli.ErrChallengeFailed) {
					rt.printer.Warning("Study the words with `wordday words` and try again.")
					return nil
				}
				if err != nil {
					return err
				}
				rt.printer.Success("Day %d unlocked. Complete it within %s.", p.Day, progress.ChallengeWindow)
				return nil
			})
		},
	}
}

func newCompleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Mark the current day as completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				p, err := sess.Tracker.CompleteDay(ctx)
				if err != nil {
					return fmt.Errorf("complete day: %w", err)
				}
				rt.printer.Success("Day %d unlocked. Complete it within %s.", p.Day, progress.ChallengeWindow)
				return nil
			})
		},
	}
}

func newAttemptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "attempt",
		Short: "Count one challenge attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				p, err := sess.Tracker.IncrementAttempts(ctx)
				if err != nil {
					return fmt.Errorf("increment attempts: %w", err)
				}
				rt.printer.Success("Attempts: %d", p.Attempts)
				return nil
			})
		},
	}
}

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the missed challenges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				rt.printer.History(progress.Failures(snapshot(ctx, rt, sess).History))
				return nil
			})
		},
	}
}

func newNameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "name NAME",
		Short: "Set the name shown while you are not signed in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				if sess.SignedIn() {
					return fmt.Errorf("signed in as %s, the name comes from the profile", sess.Identity.Email)
				}
				if err := rt.app.Store.SaveUsername(ctx, sess.UserID(), args[0]); err != nil {
					return err
				}
				rt.printer.Success("Hello, %s", args[0])
				return nil
			})
		},
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/wordday/internal/datasync"
	"github.com/at-ishikawa/wordday/internal/session"
)

func newSyncCommand() *cobra.Command {
	syncCommand := &cobra.Command{
		Use:   "sync",
		Short: "Copy progress between this machine and your account",
	}
	syncCommand.AddCommand(
		newSyncDirectionCommand("push", "Copy local progress to your account", (*datasync.Syncer).Push),
		newSyncDirectionCommand("pull", "Copy your account's progress to this machine", (*datasync.Syncer).Pull),
	)
	return syncCommand
}

type syncFunc func(s *datasync.Syncer, ctx context.Context, userID string, opts datasync.Options) (*datasync.Result, error)

func newSyncDirectionCommand(use, short string, sync syncFunc) *cobra.Command {
	var opts datasync.Options
	command := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				if rt.app.Remote == nil {
					return fmt.Errorf("no storage backend is configured")
				}
				if !sess.SignedIn() {
					return fmt.Errorf("sign in with `wordday signin` first")
				}

				syncer := datasync.NewSyncer(rt.app.Local, rt.app.Remote, os.Stdout)
				result, err := sync(syncer, ctx, sess.UserID(), opts)
				if err != nil {
					return err
				}
				rt.printer.Success("%d new, %d updated, %d skipped, %d unchanged",
					result.New, result.Updated, result.Skipped, result.Unchanged)
				if opts.DryRun {
					rt.printer.Warning("Dry run, nothing was written.")
				}
				return nil
			})
		},
	}
	command.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show what would change without writing")
	command.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace fields that already exist")
	return command
}

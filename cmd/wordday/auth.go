package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/wordday/internal/identity"
	"github.com/at-ishikawa/wordday/internal/session"
	"github.com/at-ishikawa/wordday/internal/supabase"
)

func newSignUpCommand() *cobra.Command {
	var email, password, fullName string
	command := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, _ *session.Session) error {
				ident, err := rt.binder.SignUp(ctx, email, password, fullName)
				if err != nil {
					return err
				}
				if ident.Confirmed() {
					rt.printer.Success("Account created. Sign in with `wordday signin`.")
					return nil
				}
				rt.printer.Success("Account created. Check %s to confirm your e-mail address.", ident.Email)
				return nil
			})
		},
	}
	command.Flags().StringVar(&email, "email", "", "e-mail address")
	command.Flags().StringVar(&password, "password", "", "password")
	command.Flags().StringVar(&fullName, "name", "", "full name")
	_ = command.MarkFlagRequired("email")
	_ = command.MarkFlagRequired("password")
	return command
}

func newSignInCommand() *cobra.Command {
	var email, password string
	command := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and continue with your saved progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, _ *session.Session) error {
				current, err := rt.provider.SignIn(ctx, email, password)
				if err != nil {
					return err
				}
				ctx = supabase.WithAccessToken(ctx, current.AccessToken)
				sess, err := rt.binder.Handle(ctx, identity.Event{Type: identity.EventSignedIn, Session: current})
				if err != nil && !sess.SignedIn() {
					rt.printer.Warning("Signed in, but your progress could not be loaded: %v", err)
					return nil
				}
				if err != nil {
					rt.printer.Warning("The expired challenge was reset but not saved: %v", err)
				}
				rt.printer.Greeting(sess.DisplayName(), true)
				return nil
			})
		},
	}
	command.Flags().StringVar(&email, "email", "", "e-mail address")
	command.Flags().StringVar(&password, "password", "", "password")
	_ = command.MarkFlagRequired("email")
	_ = command.MarkFlagRequired("password")
	return command
}

func newSignOutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and continue with local progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				if !sess.SignedIn() {
					rt.printer.Warning("Not signed in.")
					return nil
				}
				if err := rt.provider.SignOut(ctx); err != nil {
					return err
				}
				if _, err := rt.binder.Handle(ctx, identity.Event{Type: identity.EventSignedOut}); err != nil {
					return err
				}
				rt.printer.Success("Signed out.")
				return nil
			})
		},
	}
}

func newResetPasswordCommand() *cobra.Command {
	var email string
	command := &cobra.Command{
		Use:   "reset-password",
		Short: "Send a password reset e-mail",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, _ *session.Session) error {
				if err := rt.provider.ResetPassword(ctx, email); err != nil {
					return err
				}
				rt.printer.Success("Check %s for a link to reset your password.", email)
				return nil
			})
		},
	}
	command.Flags().StringVar(&email, "email", "", "e-mail address")
	_ = command.MarkFlagRequired("email")
	return command
}

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check whether your e-mail address was confirmed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				if !sess.SignedIn() {
					return fmt.Errorf("not signed in")
				}
				verified, err := rt.provider.VerifyEmail(ctx)
				if err != nil {
					return err
				}
				if !verified {
					rt.printer.Warning("%s is not confirmed yet.", sess.Identity.Email)
					return nil
				}
				rt.printer.Success("%s is confirmed.", sess.Identity.Email)
				return nil
			})
		},
	}
}

// Package identity signs learners in and out and reports session changes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

//go:generate mockgen -source=identity.go -destination=../mocks/identity/mock_identity.go -package=mock_identity

// ErrNotConfigured is returned by every call when no identity provider is configured.
var ErrNotConfigured = errors.New("Authentication is not configured. To enable authentication, please set up Supabase and add your credentials to the .env file.")

// AuthError is an error reported by the identity provider, such as bad
// credentials or an unconfirmed e-mail address.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Identity is a signed-in learner.
type Identity struct {
	ID               string     `yaml:"id"`
	Email            string     `yaml:"email"`
	FullName         string     `yaml:"full_name"`
	EmailConfirmedAt *time.Time `yaml:"email_confirmed_at,omitempty"`
}

// Confirmed reports whether the e-mail address was verified.
func (i Identity) Confirmed() bool {
	return i.EmailConfirmedAt != nil
}

// Session is an authenticated session of an identity.
type Session struct {
	AccessToken  string    `yaml:"access_token"`
	RefreshToken string    `yaml:"refresh_token"`
	ExpiresAt    time.Time `yaml:"expires_at"`
	Identity     Identity  `yaml:"identity"`
}

// Expired reports whether the access token has expired at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// EventType is the kind of session change.
type EventType int

const (
	EventSignedIn EventType = iota + 1
	EventSignedOut
	EventUserUpdated
	EventTokenRefreshed
)

func (t EventType) String() string {
	switch t {
	case EventSignedIn:
		return "SIGNED_IN"
	case EventSignedOut:
		return "SIGNED_OUT"
	case EventUserUpdated:
		return "USER_UPDATED"
	case EventTokenRefreshed:
		return "TOKEN_REFRESHED"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is a session change. Session is nil for EventSignedOut.
type Event struct {
	Type    EventType
	Session *Session
}

// Provider authenticates learners.
type Provider interface {
	SignUp(ctx context.Context, email, password, fullName string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	// CurrentSession returns nil when nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)
	// Subscribe starts with an event describing the current session.
	Subscribe(ctx context.Context) (<-chan Event, func())
	ResetPassword(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context) (bool, error)
}

// TokenStore keeps the session between runs.
type TokenStore interface {
	// Load returns nil when no session was saved.
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

package identity

import (
	"context"
	"log/slog"
)

// UnconfiguredProvider is used when no identity provider is configured.
// Every operation fails with ErrNotConfigured, and subscribers are told that
// nobody is signed in.
type UnconfiguredProvider struct {
	events *broadcaster
}

// NewUnconfiguredProvider creates an UnconfiguredProvider.
func NewUnconfiguredProvider(logger *slog.Logger) *UnconfiguredProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnconfiguredProvider{events: newBroadcaster(logger)}
}

func (p *UnconfiguredProvider) SignUp(context.Context, string, string, string) (*Identity, error) {
	return nil, ErrNotConfigured
}

func (p *UnconfiguredProvider) SignIn(context.Context, string, string) (*Session, error) {
	return nil, ErrNotConfigured
}

func (p *UnconfiguredProvider) SignOut(context.Context) error {
	return ErrNotConfigured
}

func (p *UnconfiguredProvider) CurrentSession(context.Context) (*Session, error) {
	return nil, ErrNotConfigured
}

func (p *UnconfiguredProvider) ResetPassword(context.Context, string) error {
	return ErrNotConfigured
}

func (p *UnconfiguredProvider) VerifyEmail(context.Context) (bool, error) {
	return false, ErrNotConfigured
}

// Subscribe emits a single EventSignedOut.
func (p *UnconfiguredProvider) Subscribe(context.Context) (<-chan Event, func()) {
	return p.events.subscribe(Event{Type: EventSignedOut})
}

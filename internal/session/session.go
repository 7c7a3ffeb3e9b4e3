// Package session binds the signed-in identity to its profile and progress.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/at-ishikawa/wordday/internal/identity"
	"github.com/at-ishikawa/wordday/internal/profile"
	"github.com/at-ishikawa/wordday/internal/progress"
	"github.com/at-ishikawa/wordday/internal/storage"
)

// Session is the learner the app is acting for. Identity and Profile are nil
// for the local user.
type Session struct {
	Identity *identity.Identity
	Profile  *profile.Profile
	Tracker  *progress.Tracker
	Verified bool
}

// UserID is the key progress is stored under.
func (s *Session) UserID() string {
	if s.Identity == nil {
		return storage.LocalUserID
	}
	return s.Identity.ID
}

// SignedIn reports whether an identity is bound.
func (s *Session) SignedIn() bool {
	return s.Identity != nil
}

// DisplayName is the profile name, falling back to the identity.
func (s *Session) DisplayName() string {
	if s.Profile != nil && s.Profile.FullName != "" {
		return s.Profile.FullName
	}
	if s.Identity != nil {
		return profile.DefaultDisplayName(*s.Identity)
	}
	return ""
}

// Binder keeps the current session in step with the identity provider.
type Binder struct {
	provider identity.Provider
	profiles profile.Repository
	store    progress.Store
	now      func() time.Time
	logger   *slog.Logger

	mu          sync.Mutex
	current     *Session
	subscribers map[int]chan *Session
	nextID      int
}

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a Binder or a Manager.
type Option func(*options)

// WithClock replaces time.Now for the trackers.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewBinder creates a Binder acting for the local user until a session is
// bound. profiles may be nil when no profile store is configured.
func NewBinder(provider identity.Provider, profiles profile.Repository, store progress.Store, opts ...Option) *Binder {
	o := newOptions(opts)
	b := &Binder{
		provider:    provider,
		profiles:    profiles,
		store:       store,
		now:         o.now,
		logger:      o.logger,
		subscribers: make(map[int]chan *Session),
	}
	b.current = b.localSession()
	return b
}

func (b *Binder) newTracker(userID string) *progress.Tracker {
	return progress.NewTracker(b.store, userID,
		progress.WithClock(b.now),
		progress.WithLogger(b.logger))
}

func (b *Binder) localSession() *Session {
	return &Session{Tracker: b.newTracker(storage.LocalUserID)}
}

// Current returns the bound session.
func (b *Binder) Current() *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Bootstrap binds the provider's current session, or loads the local user's
// progress when nobody is signed in.
func (b *Binder) Bootstrap(ctx context.Context) (*Session, error) {
	current, err := b.provider.CurrentSession(ctx)
	if err != nil && !errors.Is(err, identity.ErrNotConfigured) {
		b.logger.Warn("cannot read the current session", "error", err)
		return b.bindLocal(ctx, err)
	}
	if current == nil {
		return b.bindLocal(ctx, nil)
	}
	return b.bind(ctx, current, false)
}

// Run applies auth events until ctx is done.
func (b *Binder) Run(ctx context.Context) {
	events, cancel := b.provider.Subscribe(ctx)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if _, err := b.Handle(ctx, event); err != nil {
				b.logger.Error("cannot apply auth event", "event", event.Type, "error", err)
			}
		}
	}
}

// Handle applies one auth event and returns the resulting session.
func (b *Binder) Handle(ctx context.Context, event identity.Event) (*Session, error) {
	if event.Session == nil {
		if event.Type != identity.EventSignedOut {
			b.logger.Warn("auth event without a session is treated as sign out", "event", event.Type)
		}
		return b.signOut(), nil
	}

	verified := event.Type == identity.EventUserUpdated && event.Session.Identity.Confirmed()
	if event.Type != identity.EventSignedIn {
		if refreshed, ok := b.refresh(event.Session, verified); ok {
			return refreshed, nil
		}
	}
	return b.bind(ctx, event.Session, verified)
}

// refresh updates the identity of the bound session when the event is for
// the same user, keeping the loaded progress.
func (b *Binder) refresh(current *identity.Session, verified bool) (*Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current.Identity == nil || b.current.Identity.ID != current.Identity.ID {
		return nil, false
	}
	ident := current.Identity
	next := &Session{
		Identity: &ident,
		Profile:  b.current.Profile,
		Tracker:  b.current.Tracker,
		Verified: b.current.Verified || verified,
	}
	if verified && !b.current.Verified {
		b.logger.Info("e-mail address verified", "user_id", ident.ID)
	}
	b.publishLocked(next)
	return next, true
}

// bind loads the profile and progress of the session's identity. On failure
// the local user is bound instead and the error is returned.
func (b *Binder) bind(ctx context.Context, current *identity.Session, verified bool) (*Session, error) {
	ident := current.Identity

	p, err := b.ensureProfile(ctx, ident)
	if err != nil {
		return b.bindFailed(ident.ID, fmt.Errorf("ensure profile: %w", err))
	}

	// A reset that loaded but was not fully saved keeps the identity bound so
	// later writes still go to the user's own record.
	tracker := b.newTracker(ident.ID)
	_, loadErr := tracker.Load(ctx)
	if loadErr != nil && !errors.Is(loadErr, progress.ErrResetNotSaved) {
		return b.bindFailed(ident.ID, loadErr)
	}

	next := &Session{
		Identity: &ident,
		Profile:  p,
		Tracker:  tracker,
		Verified: verified || ident.Confirmed(),
	}
	b.logger.Info("session bound", "user_id", ident.ID)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishLocked(next)
	return next, loadErr
}

func (b *Binder) bindFailed(userID string, err error) (*Session, error) {
	b.logger.Error("cannot bind session, acting as the local user", "user_id", userID, "error", err)
	local := b.localSession()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishLocked(local)
	return local, err
}

func (b *Binder) bindLocal(ctx context.Context, cause error) (*Session, error) {
	local := b.localSession()
	_, err := local.Tracker.Load(ctx)

	b.mu.Lock()
	b.publishLocked(local)
	b.mu.Unlock()
	return local, errors.Join(cause, err)
}

// signOut binds the local user with default progress. Nothing is read or written.
func (b *Binder) signOut() *Session {
	local := b.localSession()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current.Identity != nil {
		b.logger.Info("signed out", "user_id", b.current.Identity.ID)
	}
	b.publishLocked(local)
	return local
}

func (b *Binder) ensureProfile(ctx context.Context, ident identity.Identity) (*profile.Profile, error) {
	if b.profiles == nil {
		return nil, nil
	}

	p, created, err := profile.Ensure(ctx, b.profiles, ident, b.now())
	if created {
		b.logger.Info("created profile", "user_id", ident.ID)
	}
	return p, err
}

// SignUp registers a learner and creates their profile. A failed profile
// write is logged; the profile is created again on the first sign in.
func (b *Binder) SignUp(ctx context.Context, email, password, fullName string) (*identity.Identity, error) {
	ident, err := b.provider.SignUp(ctx, email, password, fullName)
	if err != nil {
		return nil, err
	}
	if b.profiles == nil {
		return ident, nil
	}
	if err := b.profiles.CreateIfAbsent(ctx, profile.New(*ident, b.now())); err != nil {
		b.logger.Warn("cannot create profile after sign up", "user_id", ident.ID, "error", err)
	}
	return ident, nil
}

// Subscribe returns a channel receiving every bound session and a function
// that closes it. A slow subscriber only sees the latest session.
func (b *Binder) Subscribe() (<-chan *Session, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan *Session, 1)
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, id)
			close(ch)
		})
	}
}

func (b *Binder) publishLocked(next *Session) {
	b.current = next
	for _, ch := range b.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}

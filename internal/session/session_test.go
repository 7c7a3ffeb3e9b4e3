package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/wordday/internal/identity"
	mock_identity "github.com/at-ishikawa/wordday/internal/mocks/identity"
	mock_profile "github.com/at-ishikawa/wordday/internal/mocks/profile"
	mock_progress "github.com/at-ishikawa/wordday/internal/mocks/progress"
	"github.com/at-ishikawa/wordday/internal/profile"
	"github.com/at-ishikawa/wordday/internal/progress"
	"github.com/at-ishikawa/wordday/internal/session"
	"github.com/at-ishikawa/wordday/internal/storage"
)

const userID = "8d1c3c2e-5b7a-4e43-9f0c-0f3b1c2d4e5f"

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func signedIn() *identity.Session {
	return &identity.Session{
		AccessToken: "access",
		ExpiresAt:   now.Add(time.Hour),
		Identity:    identity.Identity{ID: userID, Email: "mika@example.com", FullName: "Mika Tanaka"},
	}
}

func storedProgress() progress.Progress {
	started := now.Add(-time.Hour)
	return progress.Progress{Day: 4, Datetime: &started, History: map[string]int{}, Attempts: 3}
}

func TestBinder_Bootstrap_LocalUser(t *testing.T) {
	local := storage.NewMemoryLocalStore()
	require.NoError(t, local.Set(storage.KeyAttempts, []byte("4")))
	store := storage.NewStore(nil, local, nil)

	binder := session.NewBinder(identity.NewUnconfiguredProvider(nil), nil, store, session.WithClock(clock))
	got, err := binder.Bootstrap(context.Background())
	require.NoError(t, err)

	assert.False(t, got.SignedIn())
	assert.Equal(t, storage.LocalUserID, got.UserID())
	snapshot, err := got.Tracker.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, snapshot.Attempts)
	assert.Same(t, got, binder.Current())
}

func TestBinder_Bootstrap_SignedIn(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mock_identity.NewMockProvider(ctrl)
	profiles := mock_profile.NewMockRepository(ctrl)
	store := mock_progress.NewMockStore(ctrl)

	existing := &profile.Profile{ID: userID, FullName: "Mika"}
	provider.EXPECT().CurrentSession(gomock.Any()).Return(signedIn(), nil)
	profiles.EXPECT().FindByID(gomock.Any(), userID).Return(existing, nil)
	store.EXPECT().LoadProgress(gomock.Any(), userID).Return(storedProgress(), nil)

	binder := session.NewBinder(provider, profiles, store, session.WithClock(clock))
	got, err := binder.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID())
	assert.Equal(t, existing, got.Profile)
	assert.Equal(t, "Mika", got.DisplayName())
}

func TestBinder_Handle_SignedIn(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(profiles *mock_profile.MockRepository, store *mock_progress.MockStore)
		wantUserID  string
		wantProfile string
		wantErr     bool
	}{
		{
			name: "profile is created when absent",
			setup: func(profiles *mock_profile.MockRepository, store *mock_progress.MockStore) {
				gomock.InOrder(
					profiles.EXPECT().FindByID(gomock.Any(), userID).Return(nil, nil),
					profiles.EXPECT().CreateIfAbsent(gomock.Any(), &profile.Profile{
						ID: userID, FullName: "Mika Tanaka", Email: "mika@example.com", UpdatedAt: now,
					}).Return(nil),
					profiles.EXPECT().FindByID(gomock.Any(), userID).
						Return(&profile.Profile{ID: userID, FullName: "Mika Tanaka"}, nil),
				)
				store.EXPECT().LoadProgress(gomock.Any(), userID).Return(storedProgress(), nil)
			},
			wantUserID:  userID,
			wantProfile: "Mika Tanaka",
		},
		{
			name: "profile failure binds the local user",
			setup: func(profiles *mock_profile.MockRepository, store *mock_progress.MockStore) {
				profiles.EXPECT().FindByID(gomock.Any(), userID).Return(nil, errors.New("timeout"))
			},
			wantUserID: storage.LocalUserID,
			wantErr:    true,
		},
		{
			name: "progress failure binds the local user",
			setup: func(profiles *mock_profile.MockRepository, store *mock_progress.MockStore) {
				profiles.EXPECT().FindByID(gomock.Any(), userID).Return(&profile.Profile{ID: userID}, nil)
				store.EXPECT().LoadProgress(gomock.Any(), userID).
					Return(progress.Progress{}, &storage.PersistenceError{Op: "load all", UserID: userID, Err: errors.New("503")})
			},
			wantUserID: storage.LocalUserID,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			profiles := mock_profile.NewMockRepository(ctrl)
			store := mock_progress.NewMockStore(ctrl)
			tt.setup(profiles, store)

			binder := session.NewBinder(mock_identity.NewMockProvider(ctrl), profiles, store, session.WithClock(clock))
			got, err := binder.Handle(context.Background(), identity.Event{Type: identity.EventSignedIn, Session: signedIn()})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantUserID, got.UserID())
			assert.Equal(t, tt.wantUserID, got.Tracker.UserID())
			if tt.wantProfile != "" {
				assert.Equal(t, tt.wantProfile, got.Profile.FullName)
			}
			assert.Same(t, got, binder.Current())
		})
	}
}

func TestBinder_Handle_SignedIn_UnsavedResetKeepsIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	profiles := mock_profile.NewMockRepository(ctrl)
	store := mock_progress.NewMockStore(ctrl)

	started := now.Add(-25 * time.Hour)
	profiles.EXPECT().FindByID(gomock.Any(), userID).Return(&profile.Profile{ID: userID}, nil)
	store.EXPECT().LoadProgress(gomock.Any(), userID).
		Return(progress.Progress{Day: 3, Datetime: &started, History: map[string]int{}, Attempts: 2}, nil)
	store.EXPECT().SaveAttempts(gomock.Any(), userID, 0).Return(errors.New("timeout"))
	store.EXPECT().SaveHistory(gomock.Any(), userID, gomock.Any()).Return(nil)
	store.EXPECT().SaveDay(gomock.Any(), userID, 1, (*time.Time)(nil)).Return(nil)

	binder := session.NewBinder(mock_identity.NewMockProvider(ctrl), profiles, store, session.WithClock(clock))
	got, err := binder.Handle(context.Background(), identity.Event{Type: identity.EventSignedIn, Session: signedIn()})
	require.Error(t, err)
	assert.ErrorIs(t, err, progress.ErrResetNotSaved)

	assert.True(t, got.SignedIn())
	assert.Equal(t, userID, got.UserID())
	assert.Equal(t, userID, got.Tracker.UserID())
	assert.Same(t, got, binder.Current())

	// Later writes go to the user's record, not the local store.
	store.EXPECT().SaveDay(gomock.Any(), userID, 2, gomock.Any()).Return(nil)
	completed, err := got.Tracker.CompleteDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, completed.Day)
}

func TestBinder_Handle_RepeatedSignInCreatesProfileOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_progress.NewMockStore(ctrl)
	store.EXPECT().LoadProgress(gomock.Any(), userID).Return(storedProgress(), nil).Times(2)

	created := &profile.Profile{ID: userID, FullName: "Mika Tanaka"}
	profiles := mock_profile.NewMockRepository(ctrl)
	gomock.InOrder(
		profiles.EXPECT().FindByID(gomock.Any(), userID).Return(nil, nil),
		profiles.EXPECT().CreateIfAbsent(gomock.Any(), gomock.Any()).Return(nil).Times(1),
		profiles.EXPECT().FindByID(gomock.Any(), userID).Return(created, nil).Times(2),
	)

	binder := session.NewBinder(mock_identity.NewMockProvider(ctrl), profiles, store, session.WithClock(clock))
	for range 2 {
		got, err := binder.Handle(context.Background(), identity.Event{Type: identity.EventSignedIn, Session: signedIn()})
		require.NoError(t, err)
		assert.Equal(t, created, got.Profile)
	}
}

func TestBinder_Handle_SignedOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_progress.NewMockStore(ctrl)
	store.EXPECT().LoadProgress(gomock.Any(), userID).Return(storedProgress(), nil)

	binder := session.NewBinder(mock_identity.NewMockProvider(ctrl), profile.NewMemoryRepository(), store, session.WithClock(clock))
	_, err := binder.Handle(context.Background(), identity.Event{Type: identity.EventSignedIn, Session: signedIn()})
	require.NoError(t, err)

	updates, cancel := binder.Subscribe()
	defer cancel()

	// The store mock fails the test on any save.
	got, err := binder.Handle(context.Background(), identity.Event{Type: identity.EventSignedOut})
	require.NoError(t, err)
	assert.False(t, got.SignedIn())
	assert.Nil(t, got.Profile)

	snapshot, err := got.Tracker.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, progress.Default(), snapshot)
	assert.Same(t, got, <-updates)
}

func TestBinder_Handle_UserUpdated(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_progress.NewMockStore(ctrl)
	store.EXPECT().LoadProgress(gomock.Any(), userID).Return(storedProgress(), nil).Times(1)

	binder := session.NewBinder(mock_identity.NewMockProvider(ctrl), profile.NewMemoryRepository(), store, session.WithClock(clock))
	first, err := binder.Handle(context.Background(), identity.Event{Type: identity.EventSignedIn, Session: signedIn()})
	require.NoError(t, err)
	assert.False(t, first.Verified)

	confirmed := now
	updated := signedIn()
	updated.Identity.EmailConfirmedAt = &confirmed
	got, err := binder.Handle(context.Background(), identity.Event{Type: identity.EventUserUpdated, Session: updated})
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Same(t, first.Tracker, got.Tracker)

	got, err = binder.Handle(context.Background(), identity.Event{Type: identity.EventTokenRefreshed, Session: signedIn()})
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Same(t, first.Tracker, got.Tracker)
}

func TestBinder_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mock_identity.NewMockProvider(ctrl)

	events := make(chan identity.Event, 1)
	unsubscribed := make(chan struct{})
	provider.EXPECT().Subscribe(gomock.Any()).Return((<-chan identity.Event)(events), func() { close(unsubscribed) })

	binder := session.NewBinder(provider, nil, mock_progress.NewMockStore(ctrl), session.WithClock(clock))
	updates, cancelUpdates := binder.Subscribe()
	defer cancelUpdates()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		binder.Run(ctx)
		close(done)
	}()

	events <- identity.Event{Type: identity.EventSignedOut}
	got := <-updates
	assert.Equal(t, storage.LocalUserID, got.UserID())

	cancel()
	<-done
	<-unsubscribed
}

func TestBinder_SignUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mock_identity.NewMockProvider(ctrl)
	ident := &identity.Identity{ID: userID, Email: "mika@example.com"}
	provider.EXPECT().SignUp(gomock.Any(), "mika@example.com", "password", "").Return(ident, nil)

	profiles := profile.NewMemoryRepository()
	binder := session.NewBinder(provider, profiles, mock_progress.NewMockStore(ctrl), session.WithClock(clock))

	got, err := binder.SignUp(context.Background(), "mika@example.com", "password", "")
	require.NoError(t, err)
	assert.Equal(t, ident, got)

	p, err := profiles.FindByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "mika", p.FullName)
}

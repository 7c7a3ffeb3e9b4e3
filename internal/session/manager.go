package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/at-ishikawa/wordday/internal/progress"
)

type managedTracker struct {
	mu      sync.Mutex
	tracker *progress.Tracker
	loaded  bool
}

// Manager keeps one tracker per user so concurrent requests for the same
// user share a single writer.
type Manager struct {
	store  progress.Store
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	trackers map[string]*managedTracker
}

// NewManager creates a Manager. Options are shared with the binder.
func NewManager(store progress.Store, opts ...Option) *Manager {
	o := newOptions(opts)
	return &Manager{
		store:    store,
		now:      o.now,
		logger:   o.logger,
		trackers: make(map[string]*managedTracker),
	}
}

// Tracker returns the tracker of userID, loading its progress on first use.
// A failed load, or a reset that was not saved, is retried by the next call.
func (m *Manager) Tracker(ctx context.Context, userID string) (*progress.Tracker, error) {
	m.mu.Lock()
	entry, ok := m.trackers[userID]
	if !ok {
		entry = &managedTracker{
			tracker: progress.NewTracker(m.store, userID,
				progress.WithClock(m.now),
				progress.WithLogger(m.logger)),
		}
		m.trackers[userID] = entry
	}
	m.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if !entry.loaded {
		_, err := entry.tracker.Load(ctx)
		if errors.Is(err, progress.ErrResetNotSaved) {
			// Served from the reset snapshot; the next call loads and saves again.
			m.logger.Warn("expired challenge reset was not saved, reloading on next use", "user_id", userID, "error", err)
			return entry.tracker, nil
		}
		if err != nil {
			return nil, err
		}
		entry.loaded = true
	}
	return entry.tracker, nil
}

// Forget drops the tracker of userID.
func (m *Manager) Forget(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trackers, userID)
}

// Sweep applies the expiry rule to every loaded tracker and returns how many
// challenges were reset.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	m.mu.Lock()
	entries := make([]*managedTracker, 0, len(m.trackers))
	for _, entry := range m.trackers {
		entries = append(entries, entry)
	}
	m.mu.Unlock()

	var expired int
	var errs []error
	for _, entry := range entries {
		entry.mu.Lock()
		loaded := entry.loaded
		entry.mu.Unlock()
		if !loaded {
			continue
		}

		reset, err := entry.tracker.CheckExpiry(ctx)
		if reset {
			expired++
		}
		if err != nil {
			// The stored record is still stale. Reloading it on the next request
			// saves the reset with that request's credentials.
			entry.mu.Lock()
			entry.loaded = false
			entry.mu.Unlock()
			errs = append(errs, err)
		}
	}
	if expired > 0 {
		m.logger.Info("expired challenges were reset", "count", expired)
	}
	return expired, errors.Join(errs...)
}

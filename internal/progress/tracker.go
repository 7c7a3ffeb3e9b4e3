package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

//go:generate mockgen -source=tracker.go -destination=../mocks/progress/mock_store.go -package=mock_progress

// ErrResetNotSaved is returned when an expired challenge was reset in memory
// but some of its fields could not be written.
var ErrResetNotSaved = errors.New("expired challenge reset was not saved")

// Store persists progress fields for a user. Each method writes one field.
type Store interface {
	SaveDay(ctx context.Context, userID string, day int, datetime *time.Time) error
	SaveAttempts(ctx context.Context, userID string, attempts int) error
	SaveHistory(ctx context.Context, userID string, history map[string]int) error
	LoadProgress(ctx context.Context, userID string) (Progress, error)
}

// Tracker owns the progress snapshot of one user. All mutations go through it
// and are serialized, so the snapshot has a single writer.
type Tracker struct {
	store  Store
	userID string
	now    func() time.Time
	logger *slog.Logger

	mu          sync.Mutex
	current     Progress
	subscribers map[int]chan Progress
	nextID      int
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker creates a tracker holding the default progress for userID.
func NewTracker(store Store, userID string, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:       store,
		userID:      userID,
		now:         time.Now,
		logger:      slog.Default(),
		current:     Default(),
		subscribers: make(map[int]chan Progress),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// UserID returns the user the tracker belongs to.
func (t *Tracker) UserID() string {
	return t.userID
}

// Load replaces the snapshot with the stored progress and applies the expiry rule.
// On a load failure the snapshot is left unchanged.
func (t *Tracker) Load(ctx context.Context) (Progress, error) {
	loaded, err := t.store.LoadProgress(ctx, t.userID)
	if err != nil {
		return t.peek(), fmt.Errorf("load progress: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = loaded.Clone()
	_, err = t.checkExpiryLocked(ctx)
	t.publishLocked()
	return t.current.Clone(), err
}

// Snapshot returns the current progress. The expiry rule runs first, so an
// expired challenge is never returned as active.
func (t *Tracker) Snapshot(ctx context.Context) (Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := t.checkExpiryLocked(ctx)
	return t.current.Clone(), err
}

// CheckExpiry resets the progress when the challenge window has passed.
// The snapshot is reset even if some field writes fail.
func (t *Tracker) CheckExpiry(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.checkExpiryLocked(ctx)
}

// CompleteDay advances to the next day. The snapshot is only replaced when the
// day was saved.
func (t *Tracker) CompleteDay(ctx context.Context) (Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.checkExpiryLocked(ctx); err != nil {
		return t.current.Clone(), err
	}

	next := Complete(t.current, t.now())
	if err := t.store.SaveDay(ctx, t.userID, next.Day, next.Datetime); err != nil {
		return t.current.Clone(), fmt.Errorf("save day: %w", err)
	}

	t.current = next
	t.logger.Info("day completed", "user_id", t.userID, "day", next.Day)
	t.publishLocked()
	return t.current.Clone(), nil
}

// IncrementAttempts counts an attempt. The snapshot is only replaced when the
// counter was saved.
func (t *Tracker) IncrementAttempts(ctx context.Context) (Progress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := IncrementAttempts(t.current)
	if err := t.store.SaveAttempts(ctx, t.userID, next.Attempts); err != nil {
		return t.current.Clone(), fmt.Errorf("save attempts: %w", err)
	}

	t.current = next
	t.publishLocked()
	return t.current.Clone(), nil
}

// Reset replaces the snapshot without writing anything.
func (t *Tracker) Reset(p Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = p.Clone()
	t.publishLocked()
}

// Subscribe returns a channel receiving every published snapshot and a
// function that closes it. A slow subscriber only sees the latest snapshot.
func (t *Tracker) Subscribe() (<-chan Progress, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	ch := make(chan Progress, 1)
	t.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subscribers, id)
			close(ch)
		})
	}
}

func (t *Tracker) peek() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current.Clone()
}

func (t *Tracker) checkExpiryLocked(ctx context.Context) (bool, error) {
	next, expired := Evaluate(t.current, t.now())
	if !expired {
		return false, nil
	}

	t.logger.Info("challenge expired",
		"user_id", t.userID,
		"day", t.current.Day,
		"started_at", *t.current.Datetime)

	var errs []error
	if err := t.store.SaveAttempts(ctx, t.userID, next.Attempts); err != nil {
		errs = append(errs, fmt.Errorf("save attempts: %w", err))
	}
	if err := t.store.SaveHistory(ctx, t.userID, next.History); err != nil {
		errs = append(errs, fmt.Errorf("save history: %w", err))
	}
	if err := t.store.SaveDay(ctx, t.userID, next.Day, next.Datetime); err != nil {
		errs = append(errs, fmt.Errorf("save day: %w", err))
	}
	t.current = next
	t.publishLocked()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		t.logger.Warn("expiry reset was not fully saved", "user_id", t.userID, "error", err)
		return true, fmt.Errorf("%w: %w", ErrResetNotSaved, err)
	}
	return true, nil
}

func (t *Tracker) publishLocked() {
	for _, ch := range t.subscribers {
		snapshot := t.current.Clone()
		select {
		case ch <- snapshot:
			continue
		default:
		}
		// drop the stale snapshot so the latest one fits
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

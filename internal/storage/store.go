// Package storage persists progress fields to a remote backend for signed-in
// users and to a local key/value store for the local user.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/at-ishikawa/wordday/internal/progress"
)

//go:generate mockgen -source=store.go -destination=../mocks/storage/mock_store.go -package=mock_storage

// ErrPersistence matches every PersistenceError.
var ErrPersistence = errors.New("persistence failure")

// PersistenceError reports a failed read or write of one field.
type PersistenceError struct {
	Op     string
	UserID string
	Key    string
	Err    error
}

func (e *PersistenceError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s for user %s: %v", e.Op, e.UserID, e.Err)
	}
	return fmt.Sprintf("%s %s for user %s: %v", e.Op, e.Key, e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// RemoteStore is a table of opaque values keyed by user and field.
type RemoteStore interface {
	Upsert(ctx context.Context, userID, key string, value []byte) error
	// Find returns nil when the field was never written.
	Find(ctx context.Context, userID, key string) ([]byte, error)
	FindAll(ctx context.Context, userID string) (map[string][]byte, error)
}

// LocalStore is an unscoped key/value store for the single local identity.
type LocalStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	All() (map[string][]byte, error)
}

var _ progress.Store = (*Store)(nil)

// Store routes field reads and writes to the remote or the local store.
// A nil remote means no backend is configured.
type Store struct {
	remote RemoteStore
	local  LocalStore
	logger *slog.Logger
}

// NewStore creates a Store. Pass a nil remote when no backend is configured.
func NewStore(remote RemoteStore, local LocalStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		remote: remote,
		local:  local,
		logger: logger,
	}
}

// RemoteConfigured reports whether a backend is configured.
func (s *Store) RemoteConfigured() bool {
	return s.remote != nil
}

func (s *Store) usesRemote(userID string) bool {
	return s.remote != nil && userID != LocalUserID
}

// Save writes one field. Remote failures are returned as a PersistenceError and
// never fall back to the local store.
func (s *Store) Save(ctx context.Context, userID, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &PersistenceError{Op: "encode", UserID: userID, Key: key, Err: err}
	}

	if s.usesRemote(userID) {
		if err := s.remote.Upsert(ctx, userID, key, data); err != nil {
			s.logger.Warn("remote save failed", "user_id", userID, "key", key, "error", err)
			return &PersistenceError{Op: "save", UserID: userID, Key: key, Err: err}
		}
		return nil
	}

	if err := s.local.Set(key, data); err != nil {
		return &PersistenceError{Op: "save", UserID: userID, Key: key, Err: err}
	}
	return nil
}

// Load reads one field. It returns nil when the field was never written.
func (s *Store) Load(ctx context.Context, userID, key string) (json.RawMessage, error) {
	if s.usesRemote(userID) {
		data, err := s.remote.Find(ctx, userID, key)
		if err != nil {
			return nil, &PersistenceError{Op: "load", UserID: userID, Key: key, Err: err}
		}
		return data, nil
	}

	data, ok, err := s.local.Get(key)
	if err != nil {
		return nil, &PersistenceError{Op: "load", UserID: userID, Key: key, Err: err}
	}
	if !ok {
		return nil, nil
	}
	return data, nil
}

// LoadAll reads every known field of the user.
func (s *Store) LoadAll(ctx context.Context, userID string) (map[string]json.RawMessage, error) {
	var values map[string][]byte
	var err error
	if s.usesRemote(userID) {
		values, err = s.remote.FindAll(ctx, userID)
	} else {
		values, err = s.local.All()
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load all", UserID: userID, Err: err}
	}

	result := make(map[string]json.RawMessage, len(values))
	for _, key := range []string{KeyUsername, KeyDay, KeyAttempts, KeyHistory} {
		if value, ok := values[key]; ok {
			result[key] = value
		}
	}
	return result, nil
}

// SaveDay writes the day together with the start of its window.
func (s *Store) SaveDay(ctx context.Context, userID string, day int, datetime *time.Time) error {
	return s.Save(ctx, userID, KeyDay, newDayRecord(day, datetime))
}

// SaveAttempts writes the attempt counter.
func (s *Store) SaveAttempts(ctx context.Context, userID string, attempts int) error {
	return s.Save(ctx, userID, KeyAttempts, attempts)
}

// SaveHistory writes the failure history.
func (s *Store) SaveHistory(ctx context.Context, userID string, history map[string]int) error {
	if history == nil {
		history = map[string]int{}
	}
	return s.Save(ctx, userID, KeyHistory, history)
}

// SaveUsername writes the local display name.
func (s *Store) SaveUsername(ctx context.Context, userID, username string) error {
	return s.Save(ctx, userID, KeyUsername, username)
}

// LoadUsername reads the local display name, or "" when none was saved.
func (s *Store) LoadUsername(ctx context.Context, userID string) (string, error) {
	raw, err := s.Load(ctx, userID, KeyUsername)
	if err != nil || raw == nil {
		return "", err
	}
	username, err := decodeUsername(raw)
	if err != nil {
		s.logger.Warn("ignoring malformed stored value", "user_id", userID, "key", KeyUsername, "error", err)
		return "", nil
	}
	return username, nil
}

// LoadProgress reads the progress fields. Missing fields take their defaults,
// and malformed ones are repaired to the defaults as well.
func (s *Store) LoadProgress(ctx context.Context, userID string) (progress.Progress, error) {
	values, err := s.LoadAll(ctx, userID)
	if err != nil {
		return progress.Progress{}, err
	}

	result := progress.Default()
	if raw, ok := values[KeyDay]; ok {
		day, datetime, err := decodeDay(raw)
		if err != nil {
			s.repaired(userID, KeyDay, err)
		} else {
			result.Day = day
			result.Datetime = datetime
		}
	}
	if raw, ok := values[KeyAttempts]; ok {
		attempts, err := decodeAttempts(raw)
		if err != nil {
			s.repaired(userID, KeyAttempts, err)
		} else {
			result.Attempts = attempts
		}
	}
	if raw, ok := values[KeyHistory]; ok {
		history, err := decodeHistory(raw)
		if err != nil {
			s.repaired(userID, KeyHistory, err)
		} else {
			result.History = history
		}
	}
	return result, nil
}

func (s *Store) repaired(userID, key string, err error) {
	s.logger.Warn("stored value is malformed, using the default", "user_id", userID, "key", key, "error", err)
}

// Package datasync copies progress between the local store and the remote
// store of a signed-in learner.
package datasync

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/at-ishikawa/wordday/internal/storage"
)

// Fields are the progress fields that are synchronized. The local display
// name stays local.
var Fields = []string{storage.KeyDay, storage.KeyAttempts, storage.KeyHistory}

// Result counts what happened to each field.
type Result struct {
	New       int
	Skipped   int
	Updated   int
	Unchanged int
}

// Options controls a sync.
type Options struct {
	DryRun bool
	// Overwrite replaces fields that already exist on the destination.
	Overwrite bool
}

// Syncer copies fields between the local store and one user's remote record.
type Syncer struct {
	local  storage.LocalStore
	remote storage.RemoteStore
	writer io.Writer
}

// NewSyncer creates a Syncer reporting each field to writer.
func NewSyncer(local storage.LocalStore, remote storage.RemoteStore, writer io.Writer) *Syncer {
	return &Syncer{
		local:  local,
		remote: remote,
		writer: writer,
	}
}

// Push copies the local user's progress to userID.
func (s *Syncer) Push(ctx context.Context, userID string, opts Options) (*Result, error) {
	if userID == storage.LocalUserID {
		return nil, fmt.Errorf("push needs a signed-in user")
	}

	source, err := s.local.All()
	if err != nil {
		return nil, fmt.Errorf("load local progress: %w", err)
	}
	destination, err := s.remote.FindAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load remote progress of %s: %w", userID, err)
	}

	return s.copy(source, destination, opts, func(key string, value []byte) error {
		if err := s.remote.Upsert(ctx, userID, key, value); err != nil {
			return fmt.Errorf("upsert %s: %w", key, err)
		}
		return nil
	})
}

// Pull copies the progress of userID to the local user.
func (s *Syncer) Pull(ctx context.Context, userID string, opts Options) (*Result, error) {
	if userID == storage.LocalUserID {
		return nil, fmt.Errorf("pull needs a signed-in user")
	}

	source, err := s.remote.FindAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load remote progress of %s: %w", userID, err)
	}
	destination, err := s.local.All()
	if err != nil {
		return nil, fmt.Errorf("load local progress: %w", err)
	}

	return s.copy(source, destination, opts, func(key string, value []byte) error {
		if err := s.local.Set(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

func (s *Syncer) copy(source, destination map[string][]byte, opts Options, write func(key string, value []byte) error) (*Result, error) {
	var result Result
	for _, key := range Fields {
		value, ok := source[key]
		if !ok {
			continue
		}

		existing, exists := destination[key]
		switch {
		case exists && bytes.Equal(existing, value):
			result.Unchanged++
			continue
		case exists && !opts.Overwrite:
			fmt.Fprintf(s.writer, "  [SKIP]  %s\n", key)
			result.Skipped++
			continue
		}

		if !opts.DryRun {
			if err := write(key, value); err != nil {
				return &result, err
			}
		}
		if exists {
			fmt.Fprintf(s.writer, "  [UPDATE]  %s\n", key)
			result.Updated++
		} else {
			fmt.Fprintf(s.writer, "  [NEW]  %s\n", key)
			result.New++
		}
	}
	return &result, nil
}

package server

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/at-ishikawa/wordday/internal/progress"
	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

type getDayWordsRequest struct {
	// Day defaults to the current day of the caller.
	Day int `json:"day" validate:"omitempty,min=1"`
}

func (h *Handler) tracker(ctx context.Context, caller Caller) (*progress.Tracker, error) {
	return h.trackers.Tracker(ctx, caller.UserID())
}

// snapshot returns the caller's progress. A failed write of an expiry reset
// is logged: the returned snapshot is already reset.
func (h *Handler) snapshot(ctx context.Context, caller Caller) (progress.Progress, error) {
	tracker, err := h.tracker(ctx, caller)
	if err != nil {
		return progress.Progress{}, err
	}
	p, err := tracker.Snapshot(ctx)
	if err != nil {
		h.logger.Warn("cannot persist expired challenge reset", "user_id", caller.UserID(), "error", err)
	}
	return p, nil
}

func (h *Handler) getProgress(ctx context.Context, caller Caller, _ *structpb.Struct) (map[string]any, error) {
	p, err := h.snapshot(ctx, caller)
	if err != nil {
		return nil, err
	}
	return h.progressFields(p), nil
}

func (h *Handler) getStats(ctx context.Context, caller Caller, _ *structpb.Struct) (map[string]any, error) {
	p, err := h.snapshot(ctx, caller)
	if err != nil {
		return nil, err
	}
	stats := progress.StatsOf(h.plan, p)
	return map[string]any{
		"streak":         stats.Streak,
		"level":          stats.Level,
		"levelRemainder": stats.LevelRemainder,
		"wordsSeen":      stats.WordsSeen,
		"accuracy":       stats.Accuracy,
		"attempts":       stats.Attempts,
		"plannedDays":    h.plan.Days(),
	}, nil
}

func (h *Handler) getDayWords(ctx context.Context, caller Caller, msg *structpb.Struct) (map[string]any, error) {
	var req getDayWordsRequest
	if err := h.validate.decode(msg, &req); err != nil {
		return nil, err
	}
	day := req.Day
	if day == 0 {
		p, err := h.snapshot(ctx, caller)
		if err != nil {
			return nil, err
		}
		day = p.Day
	}

	entries, err := h.plan.Words(h.table, day)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"day":   day,
		"words": entryFields(entries),
	}, nil
}

func (h *Handler) completeDay(ctx context.Context, caller Caller, _ *structpb.Struct) (map[string]any, error) {
	tracker, err := h.tracker(ctx, caller)
	if err != nil {
		return nil, err
	}
	p, err := tracker.CompleteDay(ctx)
	if err != nil {
		return nil, err
	}
	return h.progressFields(p), nil
}

func (h *Handler) incrementAttempts(ctx context.Context, caller Caller, _ *structpb.Struct) (map[string]any, error) {
	tracker, err := h.tracker(ctx, caller)
	if err != nil {
		return nil, err
	}
	p, err := tracker.IncrementAttempts(ctx)
	if err != nil {
		return nil, err
	}
	return h.progressFields(p), nil
}

func (h *Handler) getHistory(ctx context.Context, caller Caller, _ *structpb.Struct) (map[string]any, error) {
	p, err := h.snapshot(ctx, caller)
	if err != nil {
		return nil, err
	}
	return map[string]any{"failures": historyFields(p.History)}, nil
}

func (h *Handler) progressFields(p progress.Progress) map[string]any {
	now := h.now()
	var datetime any
	if p.Datetime != nil {
		datetime = p.Datetime.UTC().Format(time.RFC3339Nano)
	}
	history := make(map[string]any, len(p.History))
	for key, day := range p.History {
		history[key] = day
	}
	return map[string]any{
		"day":              p.Day,
		"datetime":         datetime,
		"attempts":         p.Attempts,
		"history":          history,
		"state":            progress.StateOf(p, now).String(),
		"remainingSeconds": progress.Remaining(p, now).Seconds(),
	}
}

func entryFields(entries []vocabulary.Entry) []any {
	words := make([]any, 0, len(entries))
	for _, entry := range entries {
		words = append(words, map[string]any{
			"word":       entry.Word,
			"index":      entry.Index,
			"definition": entry.Definition,
		})
	}
	return words
}

func historyFields(history map[string]int) []any {
	failures := progress.Failures(history)
	result := make([]any, 0, len(failures))
	for _, f := range failures {
		result = append(result, map[string]any{"date": f.Key, "day": f.Day})
	}
	return result
}

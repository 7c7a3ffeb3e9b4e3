package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// LocalUserID identifies the learner who has not signed in. Their progress
// lives in the local store only.
const LocalUserID = "local-user"

// Field keys.
const (
	KeyDay      = "day"
	KeyAttempts = "attempts"
	KeyHistory  = "history"
	KeyUsername = "username"
)

var errInvalidField = errors.New("invalid field value")

// dayRecord is the stored shape of the day field. The datetime is kept in
// epoch milliseconds.
type dayRecord struct {
	Day      int    `json:"day"`
	Datetime *int64 `json:"datetime"`
}

func newDayRecord(day int, datetime *time.Time) dayRecord {
	record := dayRecord{Day: day}
	if datetime != nil {
		millis := datetime.UnixMilli()
		record.Datetime = &millis
	}
	return record
}

func decodeDay(raw json.RawMessage) (int, *time.Time, error) {
	var record dayRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return 0, nil, fmt.Errorf("decode day: %w", err)
	}
	if record.Day < 1 {
		return 0, nil, fmt.Errorf("day %d: %w", record.Day, errInvalidField)
	}
	if record.Datetime == nil {
		return record.Day, nil, nil
	}
	if *record.Datetime < 0 {
		return 0, nil, fmt.Errorf("datetime %d: %w", *record.Datetime, errInvalidField)
	}
	datetime := time.UnixMilli(*record.Datetime)
	return record.Day, &datetime, nil
}

func decodeAttempts(raw json.RawMessage) (int, error) {
	var attempts int
	if err := json.Unmarshal(raw, &attempts); err != nil {
		return 0, fmt.Errorf("decode attempts: %w", err)
	}
	if attempts < 0 {
		return 0, fmt.Errorf("attempts %d: %w", attempts, errInvalidField)
	}
	return attempts, nil
}

func decodeHistory(raw json.RawMessage) (map[string]int, error) {
	var history map[string]int
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	for key, day := range history {
		if day < 1 {
			return nil, fmt.Errorf("history %q has day %d: %w", key, day, errInvalidField)
		}
	}
	if history == nil {
		history = map[string]int{}
	}
	return history, nil
}

func decodeUsername(raw json.RawMessage) (string, error) {
	var username string
	if err := json.Unmarshal(raw, &username); err != nil {
		return "", fmt.Errorf("decode username: %w", err)
	}
	return username, nil
}

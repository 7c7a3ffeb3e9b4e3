// Package vocabulary provides the static vocabulary table and the day plan.
package vocabulary

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrWordNotFound is returned when no entry has the requested index.
	ErrWordNotFound = errors.New("word not found")
	// ErrDayNotPlanned is returned when the plan has no entry for a day.
	ErrDayNotPlanned = errors.New("day not planned")
	// ErrEmptyWord is returned when a planned entry has no word.
	ErrEmptyWord = errors.New("empty word")
)

// Entry is a single vocabulary word.
type Entry struct {
	Word       string `yaml:"word"`
	Index      int    `yaml:"index"`
	Definition string `yaml:"definition,omitempty"`
}

// Table is the ordered vocabulary list.
type Table []Entry

// WordByIndex returns the entry whose stored index equals index.
func WordByIndex(table Table, index int) (Entry, error) {
	if index < 0 || index >= len(table) {
		return Entry{}, fmt.Errorf("index %d out of range [0, %d): %w", index, len(table), ErrWordNotFound)
	}
	if table[index].Index == index {
		return table[index], nil
	}
	for _, entry := range table {
		if entry.Index == index {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("index %d: %w", index, ErrWordNotFound)
}

// Plan maps a day number to the vocabulary indices studied that day.
type Plan map[int][]int

// Validate reports every day key below 1, every index missing from the table
// and every planned entry without a word.
func (plan Plan) Validate(table Table) error {
	var errs []error
	for _, day := range plan.sortedDays() {
		if day < 1 {
			errs = append(errs, fmt.Errorf("day %d: day must be 1 or greater", day))
		}
		for _, index := range plan[day] {
			entry, err := WordByIndex(table, index)
			if err != nil {
				errs = append(errs, fmt.Errorf("day %d: %w", day, err))
				continue
			}
			if strings.TrimSpace(entry.Word) == "" {
				errs = append(errs, fmt.Errorf("day %d: index %d: %w", day, index, ErrEmptyWord))
			}
		}
	}
	return errors.Join(errs...)
}

// Words returns the entries assigned to the day.
func (plan Plan) Words(table Table, day int) ([]Entry, error) {
	indices, ok := plan[day]
	if !ok {
		return nil, fmt.Errorf("day %d: %w", day, ErrDayNotPlanned)
	}

	entries := make([]Entry, 0, len(indices))
	for _, index := range indices {
		entry, err := WordByIndex(table, index)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", day, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// WordsThrough counts the words planned for days 1 to day.
func (plan Plan) WordsThrough(day int) int {
	count := 0
	for d, indices := range plan {
		if d >= 1 && d <= day {
			count += len(indices)
		}
	}
	return count
}

// Days returns the number of planned days.
func (plan Plan) Days() int {
	return len(plan)
}

func (plan Plan) sortedDays() []int {
	days := make([]int, 0, len(plan))
	for day := range plan {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// BuildPlan splits the table into consecutive days of wordsPerDay words.
func BuildPlan(table Table, wordsPerDay int) (Plan, error) {
	if wordsPerDay < 1 {
		return nil, fmt.Errorf("words per day must be 1 or greater: %d", wordsPerDay)
	}

	plan := make(Plan)
	for i, entry := range table {
		day := i/wordsPerDay + 1
		plan[day] = append(plan[day], entry.Index)
	}
	return plan, nil
}

// Words joins the words of the entries for display.
func Words(entries []Entry) string {
	words := make([]string, 0, len(entries))
	for _, entry := range entries {
		words = append(words, entry.Word)
	}
	return strings.Join(words, ", ")
}

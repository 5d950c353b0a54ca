package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plnr-app/dayplanner/internal/store"
)

var (
	// ErrBadDate is returned when a date is not in YYYY-MM-DD form.
	ErrBadDate = errors.New("date must be in YYYY-MM-DD format")

	// ErrDateMismatch is returned when a save's path date and body date
	// disagree.
	ErrDateMismatch = errors.New("path date and body date must match")

	// ErrBadMonth is returned when a month is outside 1-12.
	ErrBadMonth = errors.New("month must be between 1 and 12")
)

// ParseDate validates a YYYY-MM-DD date string and returns it in canonical
// form.
func ParseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", ErrBadDate
	}
	return t.Format("2006-01-02"), nil
}

// Service exposes day-entry reads and writes over the injected store.
type Service struct {
	store *store.Store
}

// NewService creates a new Service.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// GetDay returns the entry for date, or the all-empty default when the date
// was never written. Absence is not an error.
func (s *Service) GetDay(ctx context.Context, date string) (DayPayload, error) {
	key, err := ParseDate(date)
	if err != nil {
		return DayPayload{}, err
	}

	row, err := s.store.GetDay(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return defaultEntry(key), nil
	}
	if err != nil {
		return DayPayload{}, fmt.Errorf("failed to load day entry: %w", err)
	}
	return decodeRow(row), nil
}

// SaveDay upserts the entry for pathDate and returns the server-assigned
// update timestamp. The payload's own date must equal pathDate.
func (s *Service) SaveDay(ctx context.Context, pathDate string, p DayPayload) (string, error) {
	pathKey, err := ParseDate(pathDate)
	if err != nil {
		return "", err
	}
	bodyKey, err := ParseDate(p.Date)
	if err != nil {
		return "", err
	}
	if pathKey != bodyKey {
		return "", ErrDateMismatch
	}

	row, err := encodeRow(pathKey, p)
	if err != nil {
		return "", err
	}
	if err := s.store.UpsertDay(ctx, row); err != nil {
		return "", err
	}
	return row.UpdatedAt, nil
}

// MonthNotes returns the non-empty dayNote values for the given month, keyed
// by date. The underlying range is half-open: [first of month, first of next
// month), rolling December over into January.
func (s *Service) MonthNotes(ctx context.Context, year, month int) (map[string]string, error) {
	if month < 1 || month > 12 {
		return nil, ErrBadMonth
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	return s.store.MonthNotes(ctx, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

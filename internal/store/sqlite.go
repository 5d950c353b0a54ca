package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no row exists for the requested date.
	ErrNotFound = errors.New("no entry for date")
)

const (
	getDaySQL = `SELECT date, checklist_json, day_note, line_memo, board_memo, grid_json, updated_at
  FROM day_entries WHERE date = ?`

	upsertDaySQL = `INSERT INTO day_entries(date, checklist_json, day_note, line_memo, board_memo, grid_json, updated_at)
  VALUES(?, ?, ?, ?, ?, ?, ?)
  ON CONFLICT(date) DO UPDATE SET
    checklist_json=excluded.checklist_json,
    day_note=excluded.day_note,
    line_memo=excluded.line_memo,
    board_memo=excluded.board_memo,
    grid_json=excluded.grid_json,
    updated_at=excluded.updated_at`

	monthNotesSQL = `SELECT date, day_note FROM day_entries
  WHERE date >= ? AND date < ? AND day_note != ''`

	insertImageSQL = `INSERT INTO grid_images(id, day_date, filename, width, height, created_at)
  VALUES(?, ?, ?, ?, ?, ?)`

	imagesForDaySQL = `SELECT id, day_date, filename, width, height, created_at
  FROM grid_images WHERE day_date = ? ORDER BY created_at`
)

// DayRow is the raw stored representation of one day entry. The JSON-bearing
// columns are kept as strings here; decoding lives in the planner codec.
type DayRow struct {
	Date          string
	ChecklistJSON string
	DayNote       string
	ScheduleRaw   string // historical column line_memo: JSON array or legacy newline text
	BoardMemo     string
	GridJSON      string
	UpdatedAt     string
}

// ImageRow is the metadata row for one uploaded image.
type ImageRow struct {
	ID        string
	DayDate   string
	Filename  string
	Width     int
	Height    int
	CreatedAt string
}

// Store is a SQLite-backed store for day entries and image metadata.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and brings
// its schema up to date.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetDay returns the stored row for date, or ErrNotFound when the date has
// never been written.
func (s *Store) GetDay(ctx context.Context, date string) (DayRow, error) {
	var row DayRow
	var note sql.NullString
	err := s.db.QueryRowContext(ctx, getDaySQL, date).Scan(
		&row.Date, &row.ChecklistJSON, &note, &row.ScheduleRaw,
		&row.BoardMemo, &row.GridJSON, &row.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return DayRow{}, ErrNotFound
	}
	if err != nil {
		return DayRow{}, fmt.Errorf("failed to query day entry: %w", err)
	}
	row.DayNote = note.String
	return row, nil
}

// UpsertDay writes the row for its date, overwriting every non-key column.
// Last writer wins; there is no concurrency check.
func (s *Store) UpsertDay(ctx context.Context, row DayRow) error {
	_, err := s.db.ExecContext(ctx, upsertDaySQL,
		row.Date, row.ChecklistJSON, row.DayNote, row.ScheduleRaw,
		row.BoardMemo, row.GridJSON, row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert day entry: %w", err)
	}
	return nil
}

// MonthNotes returns date -> dayNote for dates in [start, end) whose note is
// non-empty. Dates with empty notes are absent from the map.
func (s *Store) MonthNotes(ctx context.Context, start, end string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, monthNotesSQL, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query month notes: %w", err)
	}
	defer rows.Close()

	notes := make(map[string]string)
	for rows.Next() {
		var date, note string
		if err := rows.Scan(&date, &note); err != nil {
			return nil, fmt.Errorf("failed to scan month note: %w", err)
		}
		notes[date] = note
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read month notes: %w", err)
	}
	return notes, nil
}

// InsertImage records metadata for one uploaded image. Rows are append-only;
// nothing updates or deletes them.
func (s *Store) InsertImage(ctx context.Context, row ImageRow) error {
	_, err := s.db.ExecContext(ctx, insertImageSQL,
		row.ID, row.DayDate, row.Filename, row.Width, row.Height, row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert image metadata: %w", err)
	}
	return nil
}

// ImagesForDay returns metadata for every image uploaded against date, in
// upload order.
func (s *Store) ImagesForDay(ctx context.Context, date string) ([]ImageRow, error) {
	rows, err := s.db.QueryContext(ctx, imagesForDaySQL, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var out []ImageRow
	for rows.Next() {
		var r ImageRow
		if err := rows.Scan(&r.ID, &r.DayDate, &r.Filename, &r.Width, &r.Height, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image metadata: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image metadata: %w", err)
	}
	return out, nil
}

package planner

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/plnr-app/dayplanner/internal/store"
)

// timestampLayout is RFC 3339 with a fixed-width nanosecond fraction, so
// successive timestamps order the same way as strings and as instants.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// utcNow returns the current UTC time as an ISO-8601 string.
func utcNow() string {
	return time.Now().UTC().Format(timestampLayout)
}

// defaultEntry is the payload returned for a date that was never written.
// It is never persisted.
func defaultEntry(date string) DayPayload {
	return DayPayload{
		Date:          date,
		Checklist:     []ChecklistItem{},
		DayNote:       "",
		ScheduleMemos: []ScheduleMemo{},
		BoardMemo:     "",
		Grid:          defaultGrid(),
		UpdatedAt:     utcNow(),
	}
}

// encodeRow serializes a payload into its stored row form, stamping a fresh
// update time.
func encodeRow(date string, p DayPayload) (store.DayRow, error) {
	checklist := p.Checklist
	if checklist == nil {
		checklist = []ChecklistItem{}
	}
	memos := p.ScheduleMemos
	if memos == nil {
		memos = []ScheduleMemo{}
	}
	grid := p.Grid
	if grid.Blocks == nil {
		grid.Blocks = []GridBlock{}
	}
	// A payload that omits the grid still stores the standard canvas size.
	if grid.Cols == 0 {
		grid.Cols = defaultGridCols
	}
	if grid.Rows == 0 {
		grid.Rows = defaultGridRows
	}

	checklistJSON, err := json.Marshal(checklist)
	if err != nil {
		return store.DayRow{}, fmt.Errorf("failed to encode checklist: %w", err)
	}
	scheduleJSON, err := json.Marshal(memos)
	if err != nil {
		return store.DayRow{}, fmt.Errorf("failed to encode schedule memos: %w", err)
	}
	gridJSON, err := json.Marshal(grid)
	if err != nil {
		return store.DayRow{}, fmt.Errorf("failed to encode grid: %w", err)
	}

	return store.DayRow{
		Date:          date,
		ChecklistJSON: string(checklistJSON),
		DayNote:       p.DayNote,
		ScheduleRaw:   string(scheduleJSON),
		BoardMemo:     p.BoardMemo,
		GridJSON:      string(gridJSON),
		UpdatedAt:     utcNow(),
	}, nil
}

// decodeRow converts a stored row back into a payload. Unparsable stored
// JSON is recovered to safe defaults rather than surfaced: old data must
// stay readable. Each recovery is logged because it indicates on-disk
// corruption.
func decodeRow(row store.DayRow) DayPayload {
	checklist := []ChecklistItem{}
	if raw := row.ChecklistJSON; raw != "" {
		if err := json.Unmarshal([]byte(raw), &checklist); err != nil {
			log.Printf("WARN: unparsable checklist for %s, substituting empty: %v", row.Date, err)
			checklist = []ChecklistItem{}
		}
	}
	if checklist == nil {
		checklist = []ChecklistItem{}
	}

	grid := defaultGrid()
	if raw := row.GridJSON; raw != "" {
		if err := json.Unmarshal([]byte(raw), &grid); err != nil {
			log.Printf("WARN: unparsable grid for %s, substituting default: %v", row.Date, err)
			grid = defaultGrid()
		}
	}
	if grid.Blocks == nil {
		grid.Blocks = []GridBlock{}
	}

	return DayPayload{
		Date:          row.Date,
		Checklist:     checklist,
		DayNote:       row.DayNote,
		ScheduleMemos: decodeScheduleMemos(row.Date, row.ScheduleRaw),
		BoardMemo:     row.BoardMemo,
		Grid:          grid,
		UpdatedAt:     row.UpdatedAt,
	}
}

// decodeScheduleMemos resolves the stored schedule-memo value, which exists
// in two historical formats, into the canonical sequence form:
//
//   - empty string: no memos
//   - JSON array of {hour, text}: current format, used as-is
//   - anything else: legacy format, one newline-joined string; line i
//     becomes {hour: min(i, 23), text: line}
//
// The legacy fallback applies whenever the value is not a usable JSON array,
// so pre-JSON rows decode without error and without data loss.
func decodeScheduleMemos(date, raw string) []ScheduleMemo {
	if raw == "" {
		return []ScheduleMemo{}
	}

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var memos []ScheduleMemo
		if err := json.Unmarshal([]byte(raw), &memos); err == nil {
			if memos == nil {
				memos = []ScheduleMemo{}
			}
			return memos
		}
		log.Printf("WARN: schedule memos for %s look like JSON but do not decode, treating as legacy text", date)
	}

	lines := strings.Split(raw, "\n")
	memos := make([]ScheduleMemo, 0, len(lines))
	for i, line := range lines {
		hour := i
		if hour > 23 {
			hour = 23
		}
		memos = append(memos, ScheduleMemo{Hour: hour, Text: line})
	}
	return memos
}

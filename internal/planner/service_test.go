package planner

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/plnr-app/dayplanner/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st)
}

func TestGetDayNeverWrittenReturnsDefault(t *testing.T) {
	svc := newTestService(t)

	p, err := svc.GetDay(context.Background(), "2024-05-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Date != "2024-05-01" {
		t.Fatalf("unexpected date: %q", p.Date)
	}
	if len(p.Checklist) != 0 || len(p.ScheduleMemos) != 0 || p.DayNote != "" || p.BoardMemo != "" {
		t.Fatalf("expected zero-value entry, got %+v", p)
	}
	if p.UpdatedAt == "" {
		t.Fatal("expected a fresh timestamp")
	}
}

func TestGetDayBadDate(t *testing.T) {
	svc := newTestService(t)

	for _, bad := range []string{"2024-5-1", "20240501", "not-a-date", "2024-13-01"} {
		if _, err := svc.GetDay(context.Background(), bad); !errors.Is(err, ErrBadDate) {
			t.Fatalf("expected ErrBadDate for %q, got %v", bad, err)
		}
	}
}

func TestSaveDayRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	text := "plans"
	in := DayPayload{
		Date: "2024-05-01",
		Checklist: []ChecklistItem{
			{ID: "c1", Text: "buy milk", Checked: true, Order: 0, Note: "2%"},
			{ID: "c2", Text: "call mom", Order: 1},
		},
		DayNote:       "busy day",
		ScheduleMemos: []ScheduleMemo{{Hour: 9, Text: "standup"}, {Hour: 9, Text: "coffee"}},
		BoardMemo:     "free text",
		Grid: Grid{
			Cols: 24,
			Rows: 24,
			Blocks: []GridBlock{
				{ID: "b1", X: 1, Y: 2, W: 3, H: 4, Type: "text", Text: &text},
				{ID: "b2", X: 5, Y: 6, W: 7, H: 8, Type: "image", Image: &GridImage{
					ID: "img1", URL: "/uploads/img1.png", Width: 10, Height: 20,
				}},
			},
		},
		UpdatedAt: "client-supplied, ignored",
	}

	updatedAt, err := svc.SaveDay(ctx, "2024-05-01", in)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if updatedAt == "" || updatedAt == in.UpdatedAt {
		t.Fatalf("expected server-assigned updatedAt, got %q", updatedAt)
	}

	got, err := svc.GetDay(ctx, "2024-05-01")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	want := in
	want.UpdatedAt = updatedAt
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	// Successive writes get non-decreasing timestamps.
	second, err := svc.SaveDay(ctx, "2024-05-01", in)
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if second < updatedAt {
		t.Fatalf("updatedAt went backwards: %q then %q", updatedAt, second)
	}
}

func TestSaveDayDateMismatchWritesNothing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	in := DayPayload{Date: "2024-05-02", DayNote: "wrong day"}
	if _, err := svc.SaveDay(ctx, "2024-05-01", in); !errors.Is(err, ErrDateMismatch) {
		t.Fatalf("expected ErrDateMismatch, got %v", err)
	}

	for _, date := range []string{"2024-05-01", "2024-05-02"} {
		p, err := svc.GetDay(ctx, date)
		if err != nil {
			t.Fatalf("get %s failed: %v", date, err)
		}
		if p.DayNote != "" {
			t.Fatalf("mismatch save must not write, found note on %s", date)
		}
	}
}

func TestMonthNotesBoundaries(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	save := func(date, note string) {
		t.Helper()
		if _, err := svc.SaveDay(ctx, date, DayPayload{Date: date, DayNote: note}); err != nil {
			t.Fatalf("save %s failed: %v", date, err)
		}
	}
	save("2024-02-29", "leap")
	save("2024-03-01", "march")
	save("2024-12-31", "nye")

	notes, err := svc.MonthNotes(ctx, 2024, 2)
	if err != nil {
		t.Fatalf("month notes failed: %v", err)
	}
	if !reflect.DeepEqual(notes, map[string]string{"2024-02-29": "leap"}) {
		t.Fatalf("unexpected february notes: %+v", notes)
	}

	// December's upper bound rolls over into the next year.
	notes, err = svc.MonthNotes(ctx, 2024, 12)
	if err != nil {
		t.Fatalf("month notes failed: %v", err)
	}
	if !reflect.DeepEqual(notes, map[string]string{"2024-12-31": "nye"}) {
		t.Fatalf("unexpected december notes: %+v", notes)
	}

	for _, bad := range []int{0, 13, -1} {
		if _, err := svc.MonthNotes(ctx, 2024, bad); !errors.Is(err, ErrBadMonth) {
			t.Fatalf("expected ErrBadMonth for %d, got %v", bad, err)
		}
	}
}

func TestLegacyScheduleReadThroughService(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	row := store.DayRow{
		Date:        "2023-11-11",
		ScheduleRaw: "9am stuff\nlunch\n",
		GridJSON:    `{"cols":24,"rows":24,"blocks":[]}`,
		UpdatedAt:   "2023-11-11T09:00:00Z",
	}
	if err := st.UpsertDay(context.Background(), row); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	p, err := NewService(st).GetDay(context.Background(), "2023-11-11")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	want := []ScheduleMemo{{Hour: 0, Text: "9am stuff"}, {Hour: 1, Text: "lunch"}, {Hour: 2, Text: ""}}
	if !reflect.DeepEqual(p.ScheduleMemos, want) {
		t.Fatalf("legacy schedule mismatch: got %+v, want %+v", p.ScheduleMemos, want)
	}
}

package uploads

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/plnr-app/dayplanner/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc, err := NewService(t.TempDir(), st)
	if err != nil {
		t.Fatalf("failed to init uploads: %v", err)
	}
	return svc, st
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Save(context.Background(), "2024-05-01", "photo.bmp", []byte{1, 2, 3})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestSaveRejectsEmptyFile(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Save(context.Background(), "2024-05-01", "photo.png", nil)
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestSaveStoresFileAndMetadata(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	res, err := svc.Save(ctx, "2024-05-01", "photo.png", pngBytes(t, 3, 2))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if res.Width != 3 || res.Height != 2 {
		t.Fatalf("expected 3x2 dimensions, got %dx%d", res.Width, res.Height)
	}
	if res.Filename != res.ID+".png" {
		t.Fatalf("filename should derive from id, got %q for id %q", res.Filename, res.ID)
	}
	if len(res.ID) != 32 {
		t.Fatalf("expected 32-char hex id, got %q", res.ID)
	}

	if _, err := os.Stat(filepath.Join(svc.Dir(), res.Filename)); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	rows, err := st.ImagesForDay(ctx, "2024-05-01")
	if err != nil {
		t.Fatalf("metadata lookup failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != res.ID || rows[0].Width != 3 || rows[0].Height != 2 {
		t.Fatalf("unexpected metadata rows: %+v", rows)
	}
}

func TestSaveUndecodableImageKeepsZeroDimensions(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Save(context.Background(), "2024-05-01", "photo.png", []byte("not a real image"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if res.Width != 0 || res.Height != 0 {
		t.Fatalf("expected 0x0 fallback, got %dx%d", res.Width, res.Height)
	}
}

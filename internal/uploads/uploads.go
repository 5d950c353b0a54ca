// Package uploads stores grid images on disk and records their metadata.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/plnr-app/dayplanner/internal/store"
)

var (
	// ErrUnsupportedType is returned for a filename whose extension is not
	// on the image allow-list.
	ErrUnsupportedType = errors.New("unsupported image type")

	// ErrEmptyFile is returned for a zero-byte upload.
	ErrEmptyFile = errors.New("uploaded file is empty")
)

// timestampLayout keeps a fixed-width fraction so created_at values sort the
// same way as strings and as instants.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// Result describes a stored image.
type Result struct {
	ID       string
	Filename string
	Width    int
	Height   int
}

// Service writes uploaded images into a directory and inserts a metadata row
// for each. Image lifecycle is append-only: nothing updates or deletes them.
type Service struct {
	dir   string
	store *store.Store
}

// NewService creates a Service rooted at dir, creating it if missing.
func NewService(dir string, st *store.Store) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Service{dir: dir, store: st}, nil
}

// Dir returns the directory uploads are written to.
func (s *Service) Dir() string {
	return s.dir
}

// Save validates and stores one uploaded image for the given (already
// validated) date. The file is written before the metadata insert; if the
// insert fails the file is left behind rather than risking a delete of data
// a client may already reference.
func (s *Service) Save(ctx context.Context, date, originalName string, data []byte) (Result, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return Result{}, ErrUnsupportedType
	}
	if len(data) == 0 {
		return Result{}, ErrEmptyFile
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	filename := id + ext

	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return Result{}, fmt.Errorf("failed to write upload: %w", err)
	}

	width, height := probeDimensions(filepath.Join(s.dir, filename))

	row := store.ImageRow{
		ID:        id,
		DayDate:   date,
		Filename:  filename,
		Width:     width,
		Height:    height,
		CreatedAt: time.Now().UTC().Format(timestampLayout),
	}
	if err := s.store.InsertImage(ctx, row); err != nil {
		// The file stays on disk; orphaned uploads are accepted.
		return Result{}, err
	}

	return Result{ID: id, Filename: filename, Width: width, Height: height}, nil
}

// probeDimensions reads the image header for width and height. A file that
// does not decode still gets stored; its dimensions are reported as 0x0.
func probeDimensions(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		log.Printf("INFO: could not decode dimensions of %s: %v", filepath.Base(path), err)
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

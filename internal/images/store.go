package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Store persists uploaded images on the local filesystem and hands back the
// public URL clients use to fetch them.
type Store struct {
	dir     string
	baseURL string
	logger  ectologger.Logger
}

// NewStore creates an image store rooted at dir. Served files are addressed
// under baseURL.
func NewStore(dir, baseURL string, logger ectologger.Logger) *Store {
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Dir returns the root directory images are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the image bytes under the record's directory and returns the
// public URL for the stored file.
func (s *Store) Save(ctx context.Context, recordID, filename string, data []byte) (string, error) {
	_, span := tracing.StartSpan(ctx, "images.Store.Save")
	defer span.End()

	// Uploaded filenames are untrusted input.
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid image filename: %q", filename)
	}

	recordDir := filepath.Join(s.dir, recordID)
	if err := os.MkdirAll(recordDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	path := filepath.Join(recordDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"record_id": recordID,
		"filename":  name,
		"bytes":     len(data),
	}).Info("stored image")

	return s.baseURL + "/" + recordID + "/" + name, nil
}

// Remove deletes every stored image for the record. Missing directories are
// not an error.
func (s *Store) Remove(ctx context.Context, recordID string) error {
	_, span := tracing.StartSpan(ctx, "images.Store.Remove")
	defer span.End()

	if err := os.RemoveAll(filepath.Join(s.dir, recordID)); err != nil {
		return fmt.Errorf("failed to remove images: %w", err)
	}
	return nil
}

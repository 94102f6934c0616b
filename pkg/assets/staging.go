// Package assets validates and stages image files locally before they are
// committed with their owning attribute value. The staged binary is what is
// transmitted on save; the preview is purely cosmetic and never leaves the
// process.
package assets

import (
	"context"
	"encoding/base64"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// MaxImageBytes is the staging size limit (2 MiB).
const MaxImageBytes = 2 << 20

// Staged is a locally staged image. It implements models.ImageAttachment.
type Staged struct {
	filename    string
	contentType string
	data        []byte

	mu      sync.RWMutex
	preview string
	ready   chan struct{}
}

func (s *Staged) Filename() string    { return s.filename }
func (s *Staged) ContentType() string { return s.contentType }
func (s *Staged) Bytes() []byte       { return s.data }

// Preview returns the data-URI preview and whether it is ready yet.
func (s *Staged) Preview() (string, bool) {
	select {
	case <-s.ready:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.preview, true
	default:
		return "", false
	}
}

// WaitPreview blocks until the preview is available or the context is done.
func (s *Staged) WaitPreview(ctx context.Context) (string, error) {
	select {
	case <-s.ready:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.preview, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stager validates and stages uploads.
type Stager struct {
	logger ectologger.Logger
}

// NewStager creates a new stager.
func NewStager(logger ectologger.Logger) *Stager {
	return &Stager{logger: logger}
}

// Stage validates the upload and, on acceptance, kicks off preview rendering
// without blocking the caller. Rejections are validation failures and leave
// any existing image reference on the row untouched.
func (st *Stager) Stage(ctx context.Context, filename, contentType string, data []byte) (*Staged, error) {
	ctx, span := tracing.StartSpan(ctx, "assets.Stager.Stage")
	defer span.End()

	mediaType := declaredMediaType(contentType, data)
	if !strings.HasPrefix(mediaType, "image/") {
		st.logger.WithContext(ctx).WithFields(map[string]any{
			"filename":   filename,
			"media_type": mediaType,
		}).Warn("rejected staged asset: not an image")
		metrics.StagedAssetsRejected.WithLabelValues("not-an-image").Inc()
		return nil, models.NewValidationError("image", "not-an-image")
	}

	if len(data) > MaxImageBytes {
		st.logger.WithContext(ctx).WithFields(map[string]any{
			"filename": filename,
			"size":     len(data),
		}).Warn("rejected staged asset: too large")
		metrics.StagedAssetsRejected.WithLabelValues("too-large").Inc()
		return nil, models.NewValidationError("image", "too-large")
	}

	staged := &Staged{
		filename:    filename,
		contentType: mediaType,
		data:        data,
		ready:       make(chan struct{}),
	}

	go staged.renderPreview()

	return staged, nil
}

func (s *Staged) renderPreview() {
	encoded := base64.StdEncoding.EncodeToString(s.data)

	s.mu.Lock()
	s.preview = "data:" + s.contentType + ";base64," + encoded
	s.mu.Unlock()
	close(s.ready)
}

// declaredMediaType prefers the declared content type, falling back to
// sniffing when none was declared.
func declaredMediaType(contentType string, data []byte) string {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			return mediaType
		}
		return contentType
	}
	return http.DetectContentType(data)
}

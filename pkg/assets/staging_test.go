package assets

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func newTestStager() *Stager {
	return NewStager(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

// pngHeader is enough of a PNG signature for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestStager_Stage(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a declared image", func(t *testing.T) {
		staged, err := newTestStager().Stage(ctx, "swatch.png", "image/png", pngHeader)
		require.NoError(t, err)
		require.NotNil(t, staged)

		assert.Equal(t, "swatch.png", staged.Filename())
		assert.Equal(t, "image/png", staged.ContentType())
		assert.Equal(t, pngHeader, staged.Bytes())
	})

	t.Run("sniffs the type when none is declared", func(t *testing.T) {
		staged, err := newTestStager().Stage(ctx, "swatch", "", pngHeader)
		require.NoError(t, err)
		assert.Equal(t, "image/png", staged.ContentType())
	})

	t.Run("rejects non-image uploads", func(t *testing.T) {
		staged, err := newTestStager().Stage(ctx, "notes.txt", "text/plain", []byte("not an image"))
		require.Error(t, err)
		assert.Nil(t, staged)

		var mutErr *models.MutationError
		require.ErrorAs(t, err, &mutErr)
		assert.Equal(t, models.ErrorKindValidation, mutErr.Kind)
		assert.Equal(t, "image", mutErr.Field)
	})

	t.Run("rejects uploads over the size limit", func(t *testing.T) {
		oversized := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxImageBytes)...)

		staged, err := newTestStager().Stage(ctx, "huge.png", "image/png", oversized)
		require.Error(t, err)
		assert.Nil(t, staged)

		var mutErr *models.MutationError
		require.ErrorAs(t, err, &mutErr)
		assert.Equal(t, models.ErrorKindValidation, mutErr.Kind)
	})

	t.Run("accepts an upload exactly at the limit", func(t *testing.T) {
		exact := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxImageBytes-len(pngHeader))...)

		staged, err := newTestStager().Stage(ctx, "max.png", "image/png", exact)
		require.NoError(t, err)
		require.NotNil(t, staged)
	})
}

func TestStaged_Preview(t *testing.T) {
	ctx := context.Background()

	t.Run("preview renders as a data URI", func(t *testing.T) {
		staged, err := newTestStager().Stage(ctx, "swatch.png", "image/png", pngHeader)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		preview, err := staged.WaitPreview(waitCtx)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(preview, "data:image/png;base64,"))

		// Once rendered the non-blocking accessor agrees.
		got, ok := staged.Preview()
		require.True(t, ok)
		assert.Equal(t, preview, got)
	})

	t.Run("wait honors context cancellation", func(t *testing.T) {
		staged := &Staged{ready: make(chan struct{})}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := staged.WaitPreview(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

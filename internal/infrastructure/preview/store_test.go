package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/visualmatch/client/internal/domain"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), 64, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0, nil)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, DefaultMaxDimension, store.maxDimension)
	assert.DirExists(t, store.dir)
	assert.Equal(t, 0, store.Live())
}

func TestCreate_Image(t *testing.T) {
	store := newTestStore(t)

	handle, err := store.Create(context.Background(), "wide.png", "image/png", pngBytes(t, 200, 100))
	require.NoError(t, err)
	assert.NotEmpty(t, handle)

	path, mediaType, err := store.Path(handle)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mediaType)
	assert.FileExists(t, path)

	thumb, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 64, thumb.Bounds().Dx())
	assert.Equal(t, 32, thumb.Bounds().Dy())
	assert.Equal(t, 1, store.Live())
}

func TestCreate_NonImageKeptVerbatim(t *testing.T) {
	store := newTestStore(t)
	content := []byte("%PDF-1.4 not really an image")

	handle, err := store.Create(context.Background(), "doc.pdf", "", content)
	require.NoError(t, err)

	path, mediaType, err := store.Path(handle)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mediaType)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestCreate_DistinctHandles(t *testing.T) {
	store := newTestStore(t)
	content := pngBytes(t, 10, 10)

	h1, err := store.Create(context.Background(), "a.png", "image/png", content)
	require.NoError(t, err)
	h2, err := store.Create(context.Background(), "a.png", "image/png", content)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.Equal(t, 2, store.Live())
}

func TestCreate_CancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Create(ctx, "a.png", "image/png", pngBytes(t, 4, 4))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Live())
}

func TestRelease(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	handle, err := store.Create(ctx, "a.png", "image/png", pngBytes(t, 8, 8))
	require.NoError(t, err)
	path, _, err := store.Path(handle)
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, handle))

	assert.NoFileExists(t, path)
	assert.Equal(t, 0, store.Live())

	_, _, err = store.Path(handle)
	assert.ErrorIs(t, err, domain.ErrPreviewNotFound)

	t.Run("second release reports not found", func(t *testing.T) {
		assert.ErrorIs(t, store.Release(ctx, handle), domain.ErrPreviewNotFound)
	})

	t.Run("unknown handle", func(t *testing.T) {
		assert.ErrorIs(t, store.Release(ctx, "nope"), domain.ErrPreviewNotFound)
	})
}

func TestRelease_FileRemovalFails(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	handle, err := store.Create(ctx, "a.png", "image/png", pngBytes(t, 8, 8))
	require.NoError(t, err)
	path, _, err := store.Path(handle)
	require.NoError(t, err)

	// a non-empty directory in place of the file makes os.Remove fail
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), []byte("x"), 0o600))

	assert.NoError(t, store.Release(ctx, handle))
	assert.Equal(t, 0, store.Live())
	assert.ErrorIs(t, store.Release(ctx, handle), domain.ErrPreviewNotFound)
}

func TestClose(t *testing.T) {
	store, err := NewStore(t.TempDir(), 32, zap.NewNop())
	require.NoError(t, err)

	_, err = store.Create(context.Background(), "a.png", "image/png", pngBytes(t, 8, 8))
	require.NoError(t, err)

	require.NoError(t, store.Close())

	assert.Equal(t, 0, store.Live())
	assert.NoDirExists(t, store.dir)
}

package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStore(dir, "/uploads/products")
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "photo.PNG", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/products/"))
	require.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	require.Equal(t, "image-bytes", string(data))
}

func TestImageStoreUniqueNames(t *testing.T) {
	store, err := NewImageStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	first, err := store.Save(context.Background(), "a.jpg", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := store.Save(context.Background(), "a.jpg", strings.NewReader("two"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestImageStoreCancelledContext(t *testing.T) {
	store, err := NewImageStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, "a.jpg", strings.NewReader("one"))
	require.ErrorIs(t, err, context.Canceled)
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"storytime/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "http://localhost:8080/media/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "images/abc.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/images/abc.png", url)

	data, err := os.ReadFile(filepath.Join(root, "images", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, store.Delete(context.Background(), "images/abc.png"))
	_, err = os.Stat(filepath.Join(root, "images", "abc.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(context.Background(), "images/abc.png"), "deleting a missing object is not an error")
}

func TestLocalStore_RejectsUnsafeKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost/media")
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.png", "/abs/path.png"} {
		t.Run(key, func(t *testing.T) {
			_, err := store.Put(context.Background(), key, []byte("x"), "image/png")
			assert.Error(t, err)
		})
	}
}

func TestLocalStore_CancelledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost/media")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, "images/a.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_SelectsDriver(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{
		Driver:        config.StorageDriverLocal,
		LocalDir:      t.TempDir(),
		PublicBaseURL: "http://localhost/media",
	})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}

func TestS3Store_URL(t *testing.T) {
	s := &S3Store{bucket: "media", region: "eu-west-1"}
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/images/a.png", s.URL("images/a.png"))

	s.publicBaseURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/images/a.png", s.URL("images/a.png"))
}

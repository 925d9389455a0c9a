package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_Remote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "reclaim", r.Header.Get("User-Agent"))
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	data, err := New(time.Second, 1024).Fetch(context.Background(), server.URL+"/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}

func TestFetch_RemoteNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := New(time.Second, 1024).Fetch(context.Background(), server.URL+"/missing.jpg")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestFetch_RemoteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	start := time.Now()
	_, err := New(20*time.Millisecond, 1024).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestFetch_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100))
	}))
	defer server.Close()

	_, err := New(time.Second, 10).Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFetch_LocalPathAndFileURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "face.jpg")
	require.NoError(t, os.WriteFile(path, []byte("local"), 0644))

	f := New(time.Second, 1024)

	data, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), data)

	data, err = f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), data)
}

func TestFetch_LocalMissing(t *testing.T) {
	_, err := New(time.Second, 1024).Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"))
	assert.Error(t, err)
}

func TestFetch_LocalRootConfinement(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "secret.jpg")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))

	f := New(time.Second, 1024)
	f.LocalRoot = root

	_, err := f.Fetch(context.Background(), outside)
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestFetch_EmptyLocator(t *testing.T) {
	_, err := New(time.Second, 1024).Fetch(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyLocator)
}

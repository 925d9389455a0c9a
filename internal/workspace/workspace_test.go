package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_CreatesUniqueDirectories(t *testing.T) {
	m := &Manager{Root: t.TempDir()}

	a, err := m.Acquire("upload")
	require.NoError(t, err)
	b, err := m.Acquire("upload")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Path, b.Path)
	assert.True(t, strings.HasPrefix(filepath.Base(a.Path), "upload-"))
	assert.DirExists(t, a.Path)
	assert.DirExists(t, b.Path)
}

func TestAcquire_CreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "root")
	m := &Manager{Root: root}

	ws, err := m.Acquire("")
	require.NoError(t, err)
	assert.Equal(t, root, filepath.Dir(ws.Path))
	assert.Equal(t, ws.ID, filepath.Base(ws.Path))
}

func TestSave_WritesFileInsideWorkspace(t *testing.T) {
	ws, err := (&Manager{Root: t.TempDir()}).Acquire("upload")
	require.NoError(t, err)

	path, err := ws.Save("../../etc/photo.jpg", strings.NewReader("jpeg bytes"), 1024)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(ws.Path, "photo.jpg"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestSave_RejectsOversizedInput(t *testing.T) {
	ws, err := (&Manager{Root: t.TempDir()}).Acquire("upload")
	require.NoError(t, err)

	_, err = ws.Save("big.png", strings.NewReader(strings.Repeat("x", 11)), 10)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NoFileExists(t, filepath.Join(ws.Path, "big.png"))

	_, err = ws.Save("exact.png", strings.NewReader(strings.Repeat("x", 10)), 10)
	assert.NoError(t, err)
}

func TestSave_RejectsEmptyName(t *testing.T) {
	ws, err := (&Manager{Root: t.TempDir()}).Acquire("upload")
	require.NoError(t, err)

	for _, name := range []string{"", "/", ".."} {
		_, err := ws.Save(name, strings.NewReader("x"), 0)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestRelease_RemovesDirectoryAndIsIdempotent(t *testing.T) {
	ws, err := (&Manager{Root: t.TempDir()}).Acquire("upload")
	require.NoError(t, err)
	_, err = ws.Save("a.jpg", strings.NewReader("x"), 0)
	require.NoError(t, err)

	require.NoError(t, ws.Release())
	assert.NoDirExists(t, ws.Path)
	assert.NoError(t, ws.Release())

	_, err = ws.Save("b.jpg", strings.NewReader("x"), 0)
	assert.ErrorIs(t, err, ErrReleased)
}

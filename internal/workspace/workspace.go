// Package workspace manages per-request scratch directories for uploaded images.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrTooLarge    = errors.New("file exceeds size limit")
	ErrInvalidName = errors.New("invalid file name")
	ErrReleased    = errors.New("workspace already released")
)

// Manager creates workspaces under Root. An empty Root uses the system temp dir.
type Manager struct {
	Root string
}

// Workspace is a private directory owned by one request.
type Workspace struct {
	ID   string
	Path string

	mu       sync.Mutex
	released bool
}

// Acquire creates a new uniquely named workspace directory.
func (m *Manager) Acquire(prefix string) (*Workspace, error) {
	root := m.Root
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}

	id := uuid.New().String()
	name := id
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		name = filepath.Base(prefix) + "-" + id
	}
	path := filepath.Join(root, name)
	if err := os.Mkdir(path, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{ID: id, Path: path}, nil
}

// Save copies r into the workspace as name and returns the stored path.
// Only the base of name is used. limit <= 0 disables the size check.
func (w *Workspace) Save(name string, r io.Reader, limit int64) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return "", ErrReleased
	}

	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	if base == "/" || base == "." || base == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	dst := filepath.Join(w.Path, base)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", base, err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && limit > 0 && n > limit {
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// Release removes the workspace and everything in it. Calling it again is a no-op.
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil
	}
	w.released = true
	if err := os.RemoveAll(w.Path); err != nil {
		return fmt.Errorf("failed to remove workspace %s: %w", w.ID, err)
	}
	return nil
}

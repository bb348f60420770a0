// Package workspace manages the staging directories the archive pipeline
// uses to hold per-type exports and extracted container contents.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is one freshly allocated staging directory. Every pipeline
// invocation gets its own; paths are never reused across calls.
type Workspace struct {
	path string
}

// DefaultRoot returns the platform cache location under which workspaces
// are allocated when no root is configured.
func DefaultRoot() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(cache, "cask", "work"), nil
}

// Allocate creates a new uniquely named staging directory under root.
// An empty root falls back to DefaultRoot.
func Allocate(root string) (*Workspace, error) {
	if root == "" {
		var err error
		root, err = DefaultRoot()
		if err != nil {
			return nil, err
		}
	}

	path := filepath.Join(root, uuid.NewString())
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{path: path}, nil
}

// Path returns the workspace directory.
func (w *Workspace) Path() string {
	return w.path
}

// Join returns a path inside the workspace.
func (w *Workspace) Join(elem ...string) string {
	return filepath.Join(append([]string{w.path}, elem...)...)
}

// Release deletes the workspace directory and everything in it.
func (w *Workspace) Release() error {
	if err := os.RemoveAll(w.path); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}

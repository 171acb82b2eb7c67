package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"toolup/internal/logger"
)

// Workspace is a temporary directory owned by a single install attempt.
// Close removes it; callers defer Close right after NewWorkspace.
type Workspace struct {
	Dir string
}

// NewWorkspace creates an empty workspace under the system temp directory.
func NewWorkspace(tool string) (*Workspace, error) {
	dir, err := os.MkdirTemp("", "toolup-"+tool+"-")
	if err != nil {
		return nil, fmt.Errorf("create workspace for %s: %w", tool, err)
	}
	logger.Debug("[DEBUG] Created workspace %s\n", dir)
	return &Workspace{Dir: dir}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	logger.Debug("[DEBUG] Removing workspace %s\n", w.Dir)
	return os.RemoveAll(w.Dir)
}

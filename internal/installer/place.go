package installer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"toolup/internal/logger"
)

// ExecutableMode is the permission set on installed commands.
const ExecutableMode os.FileMode = 0755

// Place copies src to dir/name with ExecutableMode. The copy goes to a temporary
// file in dir which is then renamed over the destination, so an existing command
// is replaced in one step and never left half written.
func Place(src, dir, name string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open source failed: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("mkdir failed: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-")
	if err != nil {
		return "", fmt.Errorf("create temp file failed: %w", err)
	}
	tmpPath := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			if rerr := os.Remove(tmpPath); rerr != nil && !os.IsNotExist(rerr) {
				logger.Warn("[WARN] Failed to remove temp file %s: %v\n", tmpPath, rerr)
			}
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return "", fmt.Errorf("copy failed: %w", err)
	}
	if err := tmp.Chmod(ExecutableMode); err != nil {
		tmp.Close()
		return "", fmt.Errorf("chmod failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close failed: %w", err)
	}

	dst := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, dst); err != nil {
		return "", fmt.Errorf("rename into place failed: %w", err)
	}
	renamed = true
	logger.Debug("[DEBUG] Placed %s at %s\n", src, dst)
	return dst, nil
}

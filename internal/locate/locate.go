// Package locate finds the installed command inside an extracted release archive.
package locate

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"toolup/internal/logger"
)

// Overrides maps a command name to the file name its upstream release ships
// the binary under, for projects whose archives do not use the command name.
var Overrides = map[string]string{
	"nnn": "nnn-musl-static",
}

// NotFoundError means no executable with the expected name exists under Root.
type NotFoundError struct {
	Name  string
	Root  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no executable named %q found under %s (looked for %v)", e.Name, e.Root, e.Tried)
}

// Candidates returns the file names searched for expected, override first.
func Candidates(expected string) []string {
	if alt, ok := Overrides[expected]; ok && alt != expected {
		return []string{alt, expected}
	}
	return []string{expected}
}

var errFound = errors.New("found")

// Locate walks root in lexical order and returns the first regular file with an
// execute bit whose base name is one of Candidates(expected).
func Locate(root, expected string) (string, error) {
	names := Candidates(expected)
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("[DEBUG] WalkDir error: %v\n", err)
			return err
		}
		if d.IsDir() || !want[d.Name()] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			logger.Debug("[DEBUG] Failed to get file info for %s: %v\n", path, err)
			return nil
		}
		if info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0 {
			logger.Debug("[DEBUG] Found executable: %s\n", path)
			found = path
			return errFound
		}
		logger.Debug("[DEBUG] Skipping %s: not an executable regular file (%v)\n", path, info.Mode())
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", fmt.Errorf("scan %s: %w", root, err)
	}
	if found == "" {
		return "", &NotFoundError{Name: expected, Root: root, Tried: names}
	}
	return found, nil
}

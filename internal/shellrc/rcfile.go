package shellrc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"toolup/internal/logger"
)

// rcFile is a shell startup file and whether to create it when missing.
type rcFile struct {
	name   string
	create bool
}

// startupFiles are patched in this order. Only ~/.profile is created; the
// interactive rc files are touched only for shells the user already has set up.
var startupFiles = []rcFile{
	{name: ".profile", create: true},
	{name: ".bashrc"},
	{name: ".zshrc"},
}

const marker = "# Added by toolup"

// ExportLine is the PATH line written for binDir.
func ExportLine(binDir string) string {
	return fmt.Sprintf("export PATH=\"%s:$PATH\"", binDir)
}

// EnsurePath appends the PATH export for binDir to the startup files under home
// that do not already contain it, and returns the files it changed.
func EnsurePath(home, binDir string) ([]string, error) {
	line := ExportLine(binDir)
	var changed []string

	for _, rc := range startupFiles {
		rcPath := filepath.Join(home, rc.name)

		present, exists, err := hasLine(rcPath, line)
		if err != nil {
			return changed, err
		}
		if present {
			logger.Debug("[DEBUG] PATH export already present in %s\n", rcPath)
			continue
		}
		if !exists && !rc.create {
			logger.Debug("[DEBUG] %s does not exist, skipping\n", rcPath)
			continue
		}

		if err := appendLines(rcPath, marker, line); err != nil {
			return changed, err
		}
		logger.Info("[INFO] Added %s to PATH in %s\n", binDir, rcPath)
		changed = append(changed, rcPath)
	}
	return changed, nil
}

// OnPath reports whether dir is already listed in the PATH value.
func OnPath(pathEnv, dir string) bool {
	clean := filepath.Clean(dir)
	for _, entry := range filepath.SplitList(pathEnv) {
		if entry != "" && filepath.Clean(entry) == clean {
			return true
		}
	}
	return false
}

// hasLine scans rcPath for line, ignoring surrounding whitespace. Lines of any
// length are read, so one huge line does not stop the scan.
func hasLine(rcPath, line string) (present, exists bool, err error) {
	f, err := os.Open(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("open %s: %w", rcPath, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for {
		text, err := reader.ReadString('\n')
		if strings.TrimSpace(text) == line {
			return true, true, nil
		}
		if err == io.EOF {
			return false, true, nil
		}
		if err != nil {
			return false, true, fmt.Errorf("read %s: %w", rcPath, err)
		}
	}
}

func appendLines(rcPath string, lines ...string) error {
	prefix := ""
	if data, err := os.ReadFile(rcPath); err == nil && len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		prefix = "\n"
	}

	file, err := os.OpenFile(rcPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("unable to open %s for appending: %w", rcPath, err)
	}
	if _, err := file.WriteString(prefix + strings.Join(lines, "\n") + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", rcPath, err)
	}
	return file.Close()
}

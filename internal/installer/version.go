package installer

import (
	"bufio"
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"toolup/internal/logger"
)

// versionPattern finds a semver-like token: 1.2, 1.2.3, 1.2.3-rc.1.
var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z][0-9A-Za-z.]*)?`)

// VersionFlags are tried in order when the release tag carries no version.
var VersionFlags = []string{"--version", "-V", "version", "-v"}

// ProbeTimeout bounds each version flag invocation.
const ProbeTimeout = 5 * time.Second

// ExtractVersion returns the first semver-like token in s, or "".
func ExtractVersion(s string) string {
	for _, token := range versionPattern.FindAllString(s, -1) {
		if _, err := semver.NewVersion(token); err == nil {
			return token
		}
	}
	return ""
}

// VersionFromTag extracts the version from a release tag ("v14.1.0", "jq-1.7.1").
func VersionFromTag(tag string) string {
	return ExtractVersion(tag)
}

// Prober reports the version of an installed executable, "" when unknown.
type Prober func(ctx context.Context, path string) string

// ProbeVersion runs path with each of VersionFlags and extracts a version from
// the first line of the first invocation that succeeds with output. It is best
// effort: tools that print nothing useful leave the version empty.
func ProbeVersion(ctx context.Context, path string) string {
	for _, flag := range VersionFlags {
		line, ok := runVersionFlag(ctx, path, flag)
		if !ok {
			continue
		}
		logger.Debug("[DEBUG] %s %s -> %q\n", path, flag, line)
		return ExtractVersion(line)
	}
	return ""
}

func runVersionFlag(ctx context.Context, path, flag string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, flag).CombinedOutput()
	if err != nil {
		return "", false
	}
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, true
		}
	}
	return "", false
}

package config

import (
	"fmt"
	"strings"
)

// LatestTag is the release alias used when a tool does not pin a tag.
const LatestTag = "latest"

// ToolSpec describes a CLI tool published on GitHub Releases.
// - Name: logical name used on the command line.
// - Owner/Repo: GitHub repository hosting the releases.
// - Executable: command name installed into the bin directory.
// - AssetPattern: regular expression matched against release asset file names.
// It carries platform tokens only; the architecture token is matched separately.
// - Tag: release tag, empty or "latest" for the newest release.
type ToolSpec struct {
	Name         string `yaml:"name"`
	Owner        string `yaml:"owner"`
	Repo         string `yaml:"repo"`
	Executable   string `yaml:"executable"`
	AssetPattern string `yaml:"asset_pattern"`
	Tag          string `yaml:"tag"`
}

// Repository returns the "owner/repo" slug.
func (t ToolSpec) Repository() string {
	return t.Owner + "/" + t.Repo
}

// ReleaseTag returns the configured tag, defaulting to LatestTag.
func (t ToolSpec) ReleaseTag() string {
	if strings.TrimSpace(t.Tag) == "" {
		return LatestTag
	}
	return t.Tag
}

// Command returns the executable name, defaulting to the tool name.
func (t ToolSpec) Command() string {
	if t.Executable != "" {
		return t.Executable
	}
	return t.Name
}

// pinnableExtensions is ordered longest first so ".tar.gz" wins over ".gz".
var pinnableExtensions = []string{
	"tar.gz", "tar.xz", "tar.bz2", "tgz", "tbz", "txz", "zip", "deb", "7z", "gz", "xz",
}

// PinnedFormat returns the archive extension the asset pattern hard-codes
// (e.g. `\.deb$`), or "" if the pattern leaves the extension open.
// A pinned pattern can never satisfy the tar.gz/tar.xz or zip tiers of asset
// selection unless it pins one of those extensions, so the resolver effectively
// falls through to its last tier.
func (t ToolSpec) PinnedFormat() string {
	pattern := strings.TrimSuffix(t.AssetPattern, "$")
	if pattern == t.AssetPattern {
		return ""
	}
	for _, ext := range pinnableExtensions {
		escaped := `\.` + strings.ReplaceAll(ext, ".", `\.`)
		if strings.HasSuffix(pattern, escaped) {
			return ext
		}
	}
	return ""
}

func (t ToolSpec) String() string {
	return fmt.Sprintf("%s (%s@%s)", t.Name, t.Repository(), t.ReleaseTag())
}

// Config is the runtime configuration assembled from flags and environment.
type Config struct {
	InstallDir    string     // Destination for executables ($XDG_BIN_HOME or ~/.local/bin)
	Home          string     // User home directory, used for shell startup files
	APIBaseURL    string     // GitHub API root
	Token         string     // Optional GitHub token
	Arch          string     // CPU identifier override, empty means detect
	FetchBackends []string   // Preferred fetch backend order
	Verbose       bool       // Debug logging
	NoColor       bool       // Plain output
	DryRun        bool       // Resolve only, never download or write
	CatalogFile   string     // Optional YAML catalog replacing the built-in one
	Catalog       []ToolSpec // Tools available to install, in install order
}

// Flags are the command-line inputs that feed Load.
type Flags struct {
	Verbose     bool
	NoColor     bool
	DryRun      bool
	CatalogFile string
}

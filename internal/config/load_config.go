package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultAPIBaseURL is the GitHub REST API root.
const DefaultAPIBaseURL = "https://api.github.com"

// DefaultFetchBackends is the backend preference used when TOOLUP_FETCH_BACKENDS is unset.
var DefaultFetchBackends = []string{"http", "curl"}

// Load assembles the runtime configuration from flags and the environment:
// XDG_BIN_HOME, HOME, GITHUB_TOKEN, GITHUB_API_URL, TOOLUP_ARCH and
// TOOLUP_FETCH_BACKENDS. The catalog comes from flags.CatalogFile when set.
func Load(flags Flags) (Config, error) {
	home := os.Getenv("HOME")
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("cannot determine home directory: %w", err)
		}
		home = dir
	}

	installDir := os.Getenv("XDG_BIN_HOME")
	if installDir == "" {
		installDir = filepath.Join(home, ".local", "bin")
	}

	apiBase := strings.TrimRight(os.Getenv("GITHUB_API_URL"), "/")
	if apiBase == "" {
		apiBase = DefaultAPIBaseURL
	}

	backends := DefaultFetchBackends
	if raw := os.Getenv("TOOLUP_FETCH_BACKENDS"); raw != "" {
		backends = nil
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				backends = append(backends, b)
			}
		}
	}

	catalog := DefaultCatalog
	if flags.CatalogFile != "" {
		loaded, err := LoadCatalog(flags.CatalogFile)
		if err != nil {
			return Config{}, err
		}
		catalog = loaded
	}

	return Config{
		InstallDir:    installDir,
		Home:          home,
		APIBaseURL:    apiBase,
		Token:         strings.TrimSpace(os.Getenv("GITHUB_TOKEN")),
		Arch:          strings.TrimSpace(os.Getenv("TOOLUP_ARCH")),
		FetchBackends: backends,
		Verbose:       flags.Verbose,
		NoColor:       flags.NoColor,
		DryRun:        flags.DryRun,
		CatalogFile:   flags.CatalogFile,
		Catalog:       catalog,
	}, nil
}

// LoadCatalog reads a YAML catalog file of the form:
//
//	tools:
//	  - name: jq
//	    owner: jqlang
//	    repo: jq
//	    executable: jq
//	    asset_pattern: '^jq-linux'
//	    tag: jq-1.7.1
//
// Entries keep the file order, which becomes the install order.
func LoadCatalog(path string) ([]ToolSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var wrapper struct {
		Tools []ToolSpec `yaml:"tools"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog %s: %w", path, err)
	}
	if err := ValidateCatalog(wrapper.Tools); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return wrapper.Tools, nil
}

// ValidateCatalog checks that every entry is usable: name, owner and repo set,
// names unique and free of path separators, and the asset pattern compiles.
func ValidateCatalog(tools []ToolSpec) error {
	if len(tools) == 0 {
		return fmt.Errorf("catalog has no tools")
	}
	seen := make(map[string]bool, len(tools))
	for i, t := range tools {
		if t.Name == "" || t.Owner == "" || t.Repo == "" {
			return fmt.Errorf("entry %d: name, owner and repo are required", i)
		}
		// Names become temp dir prefixes and command lookups
		if strings.ContainsAny(t.Name, `/\`) || t.Name == "." || t.Name == ".." {
			return fmt.Errorf("entry %d: tool name %q must not contain path separators", i, t.Name)
		}
		if strings.ContainsAny(t.Executable, `/\`) {
			return fmt.Errorf("entry %d (%s): executable %q must be a file name, not a path", i, t.Name, t.Executable)
		}
		if seen[t.Name] {
			return fmt.Errorf("entry %d: duplicate tool name %q", i, t.Name)
		}
		seen[t.Name] = true
		if _, err := regexp.Compile(t.AssetPattern); err != nil {
			return fmt.Errorf("entry %d (%s): bad asset_pattern: %w", i, t.Name, err)
		}
	}
	return nil
}

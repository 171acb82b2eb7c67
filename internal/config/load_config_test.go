package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"XDG_BIN_HOME", "GITHUB_TOKEN", "GITHUB_API_URL", "TOOLUP_ARCH", "TOOLUP_FETCH_BACKENDS"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(Flags{DryRun: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(home, ".local", "bin"); cfg.InstallDir != want {
		t.Errorf("InstallDir = %q, want %q", cfg.InstallDir, want)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if !reflect.DeepEqual(cfg.FetchBackends, DefaultFetchBackends) {
		t.Errorf("FetchBackends = %v", cfg.FetchBackends)
	}
	if !cfg.DryRun || cfg.Token != "" || cfg.Arch != "" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Catalog) != len(DefaultCatalog) {
		t.Errorf("catalog has %d tools, want the built-in %d", len(cfg.Catalog), len(DefaultCatalog))
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", "/home/u")
	t.Setenv("XDG_BIN_HOME", "/opt/tools/bin")
	t.Setenv("GITHUB_API_URL", "https://ghe.example.com/api/v3/")
	t.Setenv("GITHUB_TOKEN", " secret \n")
	t.Setenv("TOOLUP_ARCH", "aarch64")
	t.Setenv("TOOLUP_FETCH_BACKENDS", "curl, http,")

	cfg, err := Load(Flags{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InstallDir != "/opt/tools/bin" {
		t.Errorf("InstallDir = %q", cfg.InstallDir)
	}
	if cfg.APIBaseURL != "https://ghe.example.com/api/v3" {
		t.Errorf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
	}
	if cfg.Token != "secret" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.Arch != "aarch64" {
		t.Errorf("Arch = %q", cfg.Arch)
	}
	if want := []string{"curl", "http"}; !reflect.DeepEqual(cfg.FetchBackends, want) {
		t.Errorf("FetchBackends = %v, want %v", cfg.FetchBackends, want)
	}
}

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, `
tools:
  - name: jq
    owner: jqlang
    repo: jq
    asset_pattern: '^jq-linux'
    tag: jq-1.7.1
  - name: ripgrep
    owner: BurntSushi
    repo: ripgrep
    executable: rg
    asset_pattern: 'unknown-linux-musl'
`)
	tools, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(tools) != 2 || tools[0].Name != "jq" || tools[1].Name != "ripgrep" {
		t.Fatalf("tools = %+v", tools)
	}
	if tools[0].ReleaseTag() != "jq-1.7.1" || tools[1].ReleaseTag() != LatestTag {
		t.Errorf("tags = %q, %q", tools[0].ReleaseTag(), tools[1].ReleaseTag())
	}
	if tools[0].Command() != "jq" || tools[1].Command() != "rg" {
		t.Errorf("commands = %q, %q", tools[0].Command(), tools[1].Command())
	}
}

func TestLoadCatalogRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":           "tools: []\n",
		"missing_repo":    "tools:\n  - name: jq\n    owner: jqlang\n",
		"duplicate_name":  "tools:\n  - {name: jq, owner: a, repo: b}\n  - {name: jq, owner: c, repo: d}\n",
		"bad_pattern":     "tools:\n  - {name: jq, owner: a, repo: b, asset_pattern: '(unclosed'}\n",
		"not_yaml":        "tools: [\n",
		"name_with_slash": "tools:\n  - {name: foo/bar, owner: a, repo: b}\n",
		"name_dot_dot":    "tools:\n  - {name: '..', owner: a, repo: b}\n",
		"executable_path": "tools:\n  - {name: jq, owner: a, repo: b, executable: ../jq}\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadCatalog(writeCatalog(t, body)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestLoadWithMissingCatalogFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	_, err := Load(Flags{CatalogFile: filepath.Join(t.TempDir(), "nope.yaml")})
	if err == nil || !strings.Contains(err.Error(), "nope.yaml") {
		t.Errorf("err = %v, want it to name the missing file", err)
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	if err := ValidateCatalog(DefaultCatalog); err != nil {
		t.Fatalf("default catalog: %v", err)
	}
}

func TestLookup(t *testing.T) {
	found, unknown := Lookup(DefaultCatalog, []string{"fd", "bogus", "jq", "fd", "bogus"})

	var names []string
	for _, tool := range found {
		names = append(names, tool.Name)
	}
	if want := []string{"jq", "fd"}; !reflect.DeepEqual(names, want) {
		t.Errorf("found = %v, want %v in catalog order", names, want)
	}
	if want := []string{"bogus"}; !reflect.DeepEqual(unknown, want) {
		t.Errorf("unknown = %v, want %v", unknown, want)
	}
}

func TestPinnedFormat(t *testing.T) {
	tests := map[string]string{
		`linux-musl\.tbz$`:          "tbz",
		`^fastfetch-linux-.*\.deb$`: "deb",
		`\.tar\.gz$`:                "tar.gz",
		`unknown-linux-musl`:        "",
		`^yq_linux_[a-z0-9]+$`:      "",
	}
	for pattern, want := range tests {
		if got := (ToolSpec{AssetPattern: pattern}).PinnedFormat(); got != want {
			t.Errorf("PinnedFormat(%q) = %q, want %q", pattern, got, want)
		}
	}
}

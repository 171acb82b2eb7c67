package installer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExtractVersion(t *testing.T) {
	tests := map[string]string{
		"v14.1.0":                         "14.1.0",
		"jq-1.7.1":                        "1.7.1",
		"0.44.1-rc.1":                     "0.44.1-rc.1",
		"v4.9":                            "4.9",
		"nightly":                         "",
		"":                                "",
		"ripgrep 14.1.0 (rev e50df40a19)": "14.1.0",
		"bat 0.24.0 (fc95468)":            "0.24.0",
	}
	for in, want := range tests {
		if got := ExtractVersion(in); got != want {
			t.Errorf("ExtractVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestProbeVersion(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{
			name:   "double_dash_version",
			script: "[ \"$1\" = \"--version\" ] && { echo 'tool 2.3.4'; echo 'extra'; exit 0; }\nexit 1\n",
			want:   "2.3.4",
		},
		{
			name:   "falls_through_to_version_subcommand",
			script: "[ \"$1\" = \"version\" ] && { echo 'v0.9.1'; exit 0; }\nexit 2\n",
			want:   "0.9.1",
		},
		{
			name:   "nothing_works",
			script: "exit 1\n",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScript(t, tt.script)
			if got := ProbeVersion(context.Background(), path); got != tt.want {
				t.Errorf("ProbeVersion = %q, want %q", got, tt.want)
			}
		})
	}
}

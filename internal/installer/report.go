package installer

import (
	"fmt"
	"strings"
)

// State is a step of a single tool's install.
type State int

const (
	Skipped State = iota
	Resolving
	Previewing
	Fetching
	Extracting
	Locating
	Placing
	VersionProbing
	Installed
	Failed
)

var stateNames = [...]string{
	Skipped:        "skipped",
	Resolving:      "resolving",
	Previewing:     "previewing",
	Fetching:       "fetching",
	Extracting:     "extracting",
	Locating:       "locating",
	Placing:        "placing",
	VersionProbing: "version probing",
	Installed:      "installed",
	Failed:         "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome is the result of one tool's install attempt.
type Outcome struct {
	Tool     string
	State    State // terminal state: Installed, Previewing, Failed or Skipped
	FailedAt State // step that failed when State is Failed
	Tag      string
	AssetURL string
	Version  string
	Path     string
	Err      error
}

func (o Outcome) fail(at State, err error) Outcome {
	o.State = Failed
	o.FailedAt = at
	o.Err = err
	return o
}

// Report accumulates outcomes for a run.
type Report struct {
	DryRun    bool
	Requested int
	Outcomes  []Outcome
}

// With returns a copy of the report with o appended.
func (r Report) With(o Outcome) Report {
	outcomes := make([]Outcome, len(r.Outcomes), len(r.Outcomes)+1)
	copy(outcomes, r.Outcomes)
	r.Outcomes = append(outcomes, o)
	return r
}

func (r Report) filter(s State) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.State == s {
			out = append(out, o)
		}
	}
	return out
}

// Installed returns the tools installed in this run.
func (r Report) Installed() []Outcome { return r.filter(Installed) }

// Previewed returns the tools resolved in dry-run mode.
func (r Report) Previewed() []Outcome { return r.filter(Previewing) }

// Failed returns the tools that failed.
func (r Report) Failed() []Outcome { return r.filter(Failed) }

// Summary is the final one-line report.
func (r Report) Summary() string {
	if r.DryRun {
		return fmt.Sprintf("dry run: %d of %d planned tools resolvable%s",
			len(r.Previewed()), r.Requested, failedSuffix(r.Failed()))
	}
	return fmt.Sprintf("installed %d of %d requested tools%s",
		len(r.Installed()), r.Requested, failedSuffix(r.Failed()))
}

func failedSuffix(failed []Outcome) string {
	if len(failed) == 0 {
		return ""
	}
	names := make([]string, 0, len(failed))
	for _, o := range failed {
		names = append(names, o.Tool)
	}
	return fmt.Sprintf(" (failed: %s)", strings.Join(names, ", "))
}

// ExitCode is 0 for any dry run or when at least one tool installed, 1 otherwise.
func (r Report) ExitCode() int {
	if r.DryRun || len(r.Installed()) > 0 {
		return 0
	}
	return 1
}

package installer

import (
	"context"

	"toolup/internal/archive"
	"toolup/internal/config"
	"toolup/internal/locate"
	"toolup/internal/logger"
	"toolup/internal/release"
)

// Resolver finds the asset and tag to install for a tool.
type Resolver interface {
	Resolve(ctx context.Context, tool config.ToolSpec) (release.Resolved, error)
}

// Fetcher downloads a URL to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, url, destPath string) error
}

// Options configure an Installer.
type Options struct {
	Resolver   Resolver
	Fetcher    Fetcher // unused in dry-run mode
	InstallDir string
	DryRun     bool
	Prober     Prober // defaults to ProbeVersion
}

// Installer runs tools through resolve, fetch, extract, locate, place and
// version detection, one tool at a time.
type Installer struct {
	resolver   Resolver
	fetcher    Fetcher
	installDir string
	dryRun     bool
	prober     Prober
}

// New creates an Installer.
func New(opts Options) *Installer {
	prober := opts.Prober
	if prober == nil {
		prober = ProbeVersion
	}
	return &Installer{
		resolver:   opts.Resolver,
		fetcher:    opts.Fetcher,
		installDir: opts.InstallDir,
		dryRun:     opts.DryRun,
		prober:     prober,
	}
}

// Run installs tools in order. A failing tool is reported and the run moves on;
// tools left after the context is cancelled are recorded as skipped.
func (i *Installer) Run(ctx context.Context, tools []config.ToolSpec) Report {
	report := Report{DryRun: i.dryRun, Requested: len(tools)}
	logger.Debug("[DEBUG] Starting run with %d tools (dry run: %v)\n", len(tools), i.dryRun)

	for _, tool := range tools {
		// After Ctrl-C the remaining tools are only recorded
		if err := ctx.Err(); err != nil {
			report = report.With(Outcome{Tool: tool.Name, State: Skipped, Err: err})
			continue
		}
		outcome := i.InstallOne(ctx, tool)
		printOutcome(outcome)
		report = report.With(outcome)
	}
	return report
}

// InstallOne installs a single tool. All files it downloads or extracts live in
// one workspace that is removed before it returns.
func (i *Installer) InstallOne(ctx context.Context, tool config.ToolSpec) Outcome {
	out := Outcome{Tool: tool.Name, State: Resolving}

	// Ask the release API which asset fits this host
	logger.Info("[INFO] Resolving %s...\n", tool)
	resolved, err := i.resolver.Resolve(ctx, tool)
	if err != nil {
		return out.fail(Resolving, err)
	}
	out.Tag = resolved.Tag
	out.AssetURL = resolved.AssetURL

	// Dry run stops here: report what would be installed, touch nothing
	if i.dryRun {
		out.State = Previewing
		out.Version = VersionFromTag(resolved.Tag)
		return out
	}

	// Everything downloaded or extracted for this tool lives in one workspace
	ws, err := archive.NewWorkspace(tool.Name)
	if err != nil {
		return out.fail(Fetching, err)
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to remove workspace %s: %v\n", ws.Dir, cerr)
		}
	}()

	// Download the asset into the workspace
	out.State = Fetching
	asset := resolved.Asset()
	download := ws.Path(asset.Name)
	logger.Info("[INFO] Downloading %s\n", asset.URL)
	if err := i.fetcher.Fetch(ctx, asset.URL, download); err != nil {
		return out.fail(Fetching, err)
	}

	// Work out what was downloaded; plain executables skip extraction
	out.State = Extracting
	format, err := archive.Detect(download)
	if err != nil {
		return out.fail(Extracting, err)
	}

	binary := download
	if format != release.FormatRaw {
		dir, err := archive.Extract(ctx, download, format, ws.Dir)
		if err != nil {
			return out.fail(Extracting, err)
		}

		// Find the executable inside the extracted tree
		out.State = Locating
		binary, err = locate.Locate(dir, tool.Command())
		if err != nil {
			return out.fail(Locating, err)
		}
	} else {
		logger.Debug("[DEBUG] %s is a plain executable, copying directly\n", asset.Name)
	}

	// Copy it into the install directory with 0755
	out.State = Placing
	dest, err := Place(binary, i.installDir, tool.Command())
	if err != nil {
		return out.fail(Placing, err)
	}
	out.Path = dest

	// Version comes from the tag, else from running the binary (best effort)
	out.State = VersionProbing
	out.Version = VersionFromTag(resolved.Tag)
	if out.Version == "" {
		out.Version = i.prober(ctx, dest)
	}

	out.State = Installed
	return out
}

func printOutcome(o Outcome) {
	switch o.State {
	case Installed:
		if o.Version != "" {
			logger.Success("%s %s installed to %s\n", o.Tool, o.Version, o.Path)
		} else {
			logger.Success("%s installed to %s\n", o.Tool, o.Path)
		}
	case Previewing:
		logger.Success("%s would install %s (release %s)\n", o.Tool, o.AssetURL, o.Tag)
	case Failed:
		logger.Failure("%s failed while %s: %v\n", o.Tool, o.FailedAt, o.Err)
	}
}

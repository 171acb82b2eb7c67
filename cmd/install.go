package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"toolup/internal/config"
	"toolup/internal/fetch"
	"toolup/internal/installer"
	"toolup/internal/logger"
	"toolup/internal/platform"
	"toolup/internal/release"
	"toolup/internal/shellrc"
)

// runInstall is the root command body: pick the tools, check the platform,
// run the installer and make sure the install directory ends up on PATH.
func runInstall(cmd *cobra.Command, flags config.Flags, args []string) error {
	cfg, err := config.Load(flags)
	if err != nil {
		logger.Error("[ERROR] %v\n", err)
		return exitWith(1)
	}

	if len(args) == 0 && !cfg.DryRun {
		if err := cmd.Help(); err != nil {
			return err
		}
		printCatalog(cmd.OutOrStdout(), cfg.Catalog)
		return nil
	}

	tools := cfg.Catalog
	if len(args) > 0 {
		var unknown []string
		tools, unknown = config.Lookup(cfg.Catalog, args)
		for _, name := range unknown {
			logger.Warn("[WARN] Unknown tool %q, skipping\n", name)
		}
	}
	if len(tools) == 0 {
		// A dry run succeeds even with nothing planned
		if cfg.DryRun {
			logger.Warn("[WARN] No known tools requested, nothing to preview\n")
			return nil
		}
		logger.Error("[ERROR] No known tools requested (see toolup --help for the catalog)\n")
		return exitWith(1)
	}

	cpu := platform.Select(cfg.Arch).CPU()
	archToken, err := release.ArchToken(cpu)
	if err != nil {
		logger.Error("[ERROR] %v\n", err)
		return exitWith(1)
	}
	logger.Debug("[DEBUG] CPU %s, asset token %s\n", cpu, archToken)

	fetcher, err := fetch.New(
		fetch.WithBackends(fetch.BackendsByName(cfg.FetchBackends)...),
		fetch.WithToken(cfg.Token, apiHost(cfg.APIBaseURL)),
	)
	if err != nil {
		logger.Error("[ERROR] %v\n", err)
		return exitWith(1)
	}

	inst := installer.New(installer.Options{
		Resolver:   release.NewResolver(fetcher, archToken, release.WithBaseURL(cfg.APIBaseURL)),
		Fetcher:    fetcher,
		InstallDir: cfg.InstallDir,
		DryRun:     cfg.DryRun,
	})

	if cfg.DryRun {
		logger.Info("[INFO] Dry run, nothing will be downloaded or installed\n")
	} else {
		if err := os.MkdirAll(cfg.InstallDir, 0755); err != nil {
			logger.Error("[ERROR] Cannot create install directory %s: %v\n", cfg.InstallDir, err)
			return exitWith(1)
		}
	}
	logger.Info("[INFO] Tools: %s\n", toolNames(tools))

	report := inst.Run(cmd.Context(), tools)

	if !cfg.DryRun && len(report.Installed()) > 0 {
		ensurePath(cfg)
	}

	if report.ExitCode() == 0 {
		logger.Info("[INFO] %s\n", report.Summary())
	} else {
		logger.Error("[ERROR] %s\n", report.Summary())
	}
	return exitWith(report.ExitCode())
}

// ensurePath patches the shell startup files. Failures only warn: the tools are
// installed either way.
func ensurePath(cfg config.Config) {
	if _, err := shellrc.EnsurePath(cfg.Home, cfg.InstallDir); err != nil {
		logger.Warn("[WARN] Could not update shell startup files: %v\n", err)
	}
	if !shellrc.OnPath(os.Getenv("PATH"), cfg.InstallDir) {
		logger.Warn("[WARN] %s is not on PATH in this shell; run: %s\n",
			cfg.InstallDir, shellrc.ExportLine(cfg.InstallDir))
	}
}

func printCatalog(w io.Writer, catalog []config.ToolSpec) {
	fmt.Fprintln(w, "\nAvailable tools:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, tool := range catalog {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", tool.Name, tool.Command(), tool.Repository())
	}
	tw.Flush()
}

func toolNames(tools []config.ToolSpec) string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

// apiHost is the host of the API base URL, so a token configured for a
// GitHub Enterprise server is also sent there.
func apiHost(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"toolup/internal/config"
	"toolup/internal/logger"
)

// exitError carries a non-zero process exit status out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// exitWith returns nil for 0 so cobra treats it as success.
func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}

// NewRootCmd builds the toolup command. Flags live in the closure, so every
// invocation (and every test) starts from a clean state.
func NewRootCmd() *cobra.Command {
	var flags config.Flags

	rootCmd := &cobra.Command{
		Use:   "toolup [flags] [tool...]",
		Short: "Install curated CLI tools from GitHub Releases",
		Long: "toolup downloads the latest release of curated command-line tools from GitHub,\n" +
			"installs the executables into $XDG_BIN_HOME (default ~/.local/bin) and makes\n" +
			"sure that directory is on PATH in your shell startup files.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,

		// PersistentPreRun initializes the logger from the global flags.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(flags.Verbose, flags.NoColor)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, flags, args)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "Disable colored output")
	rootCmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Resolve releases without downloading or installing (all tools if none given)")
	rootCmd.Flags().StringVarP(&flags.CatalogFile, "catalog", "c", "", "YAML file replacing the built-in tool catalog")

	return rootCmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, NewRootCmd(), os.Args[1:])
}

func run(ctx context.Context, rootCmd *cobra.Command, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		logger.Error("[ERROR] %v\n", err)
		return 1
	}
	return 0
}

// Package cli implements the plotproof command-line interface: offline
// validation of boundary files and full screening against the configured
// forest-monitoring oracles.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verdantio/plotproof/internal/config"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
}

type cliContextKey struct{}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "plotproof",
		Short:   "EUDR deforestation-risk screening for plot boundary files",
		Long: "plotproof screens agricultural plot boundaries (GeoJSON or KML) against\n" +
			"the GFW, JRC TMF and SBTN forest-loss datasets plus WDPA protected-area\n" +
			"and peatland overlays, and reports a per-plot compliance verdict.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./plotproof.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")

	cmd.AddCommand(
		NewValidateCmd(),
		NewScreenCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg := logging.LogConfig{
		Level:  opts.LogLevel,
		Format: "console",
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if opts.OutputFormat != "text" && opts.OutputFormat != "json" {
		return fmt.Errorf("unknown output format %q (want text or json)", opts.OutputFormat)
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
	})
	cmd.SetContext(ctx)
	return nil
}

// loadConfig reads the named config file, falling back to environment-only
// configuration when no file is given or present.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat("plotproof.yaml"); err == nil {
		return config.Load("plotproof.yaml")
	}
	return config.LoadFromEnv()
}

// getCLIContext extracts the initialized context set by persistentPreRun.
func getCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	v := cmd.Context().Value(cliContextKey{})
	cliCtx, ok := v.(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("command context is not initialized")
	}
	return cliCtx, nil
}

// Execute runs the root command.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

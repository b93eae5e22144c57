package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/soltixdb/cets/internal/config"
	"github.com/soltixdb/cets/internal/logging"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
)

// cli carries the state shared by every subcommand
type cli struct {
	fs         afero.Fs
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logging.Logger
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	c := &cli{fs: fs}

	root := &cobra.Command{
		Use:   "cets",
		Short: "Correlation analysis between time series and event sequences",
		Long: `cets tests whether events influence multivariate time series (E->S) or
whether series movements announce events (S->E), using nearest-neighbour
two-sample tests over DTW distances. The Pearson baseline is also available.`,
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	root.AddCommand(newRunCmd(c), newSubLengthCmd(c))
	return root
}

// setup loads the configuration and logs to stderr so stdout stays parseable
func (c *cli) setup() error {
	cfg := config.DefaultConfig()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Logging.Level = c.logLevel
	cfg.Logging.Format = "console"
	cfg.Logging.OutputPath = "stderr"

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetGlobal(logger)

	c.cfg = cfg
	c.logger = logger
	return nil
}

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

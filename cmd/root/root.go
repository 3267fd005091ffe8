// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/ekstre-csv/internal/config"
	"fjacquet/ekstre-csv/internal/container"
	"fjacquet/ekstre-csv/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input     string
	Output    string
	Config    string
	LogLevel  string
	LogFormat string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.NewLogrusAdapter("info", "text")

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "ekstre-csv",
		Short: "A CLI tool to convert Turkish bank statements into accounting ledger files.",
		Long: `ekstre-csv converts bank statement exports (CSV, XLS, XLSX) from Turkish
banks into the two-section ledger table accounting software imports.

It recognizes the issuing bank from the file name or the content, extracts
the transactions and writes the ledger as CSV or XLSX. Unknown layouts are
handled by generic column detection.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to ekstre-csv!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer != nil {
				if err := appContainer.Close(); err != nil {
					Log.WithError(err).Warn("Failed to close application resources")
				}
				appContainer = nil
			}
		},
	}

	// SharedFlags holds the values of the persistent flags
	SharedFlags = CommonFlags{}

	appConfig    *config.Config
	appContainer *container.Container
)

// Init initializes the root command and all flags
func Init() {
	pf := Cmd.PersistentFlags()
	pf.StringVarP(&SharedFlags.Input, "input", "i", "", "Input file or directory")
	pf.StringVarP(&SharedFlags.Output, "output", "o", "", "Output file or directory")
	pf.StringVar(&SharedFlags.Config, "config", "", "Config file (default searches ./config.yaml, $HOME/.config/ekstre-csv, /etc/ekstre-csv)")
	pf.StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&SharedFlags.LogFormat, "log-format", "", "Log format (text, json)")
}

func setup(cmd *cobra.Command) error {
	config.LoadEnv()

	cfg, err := config.InitializeConfigFrom(SharedFlags.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	if SharedFlags.LogFormat != "" {
		cfg.Log.Format = SharedFlags.LogFormat
	}

	Log = config.NewLogger(cfg)
	c, err := container.NewContainerWithLogger(cmd.Context(), cfg, Log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	appConfig = cfg
	appContainer = c
	return nil
}

// GetContainer returns the container built for the running command.
func GetContainer() *container.Container {
	return appContainer
}

// GetConfig returns the configuration of the running command.
func GetConfig() *config.Config {
	return appConfig
}

// SetContainer replaces the container, for tests that drive commands
// without the persistent pre-run.
func SetContainer(c *container.Container) {
	appContainer = c
	if c != nil {
		appConfig = c.GetConfig()
		Log = c.GetLogger()
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Kindred/internal/app"
	"github.com/MikeSquared-Agency/Kindred/internal/config"
)

const cliName = "kindred-cli"

var (
	// Used for flags.
	cfgFile      string
	rosterFile   string
	questionFile string
	debug        bool

	rootCmd = &cobra.Command{
		Use:          cliName,
		Short:        "kindred-cli takes the quiz and inspects the profile roster from a terminal",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&rosterFile, "roster", "", "a roster YAML file, overrides the configured roster source")
	rootCmd.PersistentFlags().StringVar(&questionFile, "questions", "", "a question bank YAML file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
}

// loadConfig reads the config file and applies the command line overrides.
// The CLI logs in text at warn level unless --debug is set.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if rosterFile != "" {
		cfg.Roster.Source = "file"
		cfg.Roster.Path = rosterFile
	}
	if questionFile != "" {
		cfg.Quiz.Path = questionFile
	}

	cfg.Logging.Format = "text"
	cfg.Logging.Level = "warn"
	if debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func buildApp(ctx context.Context, cmd *cobra.Command) (*app.App, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(cfg.Logging, cmd.ErrOrStderr())

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

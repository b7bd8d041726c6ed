package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/config"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/logger"
)

// serveFlags are the command-line overrides for the environment.
type serveFlags struct {
	journalFiles   []string
	stagingFiles   []string
	stagingCommand []string
	configFile     string
	port           string
}

// runServer is swapped out in tests.
var runServer = run

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "beancount-staging-server",
		Short: "Review staged beancount entries in the browser",
		Long: `Serves the review API for staging entries that are not yet in the journal.
The pending list is reloaded whenever a journal or staging file changes.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}

			log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, log)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.journalFiles, "journal-file", "j", nil, "Journal file (repeatable); commits go to the first")
	cmd.Flags().StringSliceVarP(&flags.stagingFiles, "staging-file", "s", nil, "Staging file (repeatable)")
	cmd.Flags().StringArrayVar(&flags.stagingCommand, "staging-command", nil, "Command printing staging entries, one argument per flag")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "Project file (default: beancount-staging.yaml in the working directory)")
	cmd.Flags().StringVarP(&flags.port, "port", "p", "", "HTTP port (overrides HTTP_PORT)")

	return cmd
}

// resolveConfig layers the sources: environment, then flags, then the project
// file for whatever is still unset.
func resolveConfig(cmd *cobra.Command, flags serveFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("journal-file") {
		cfg.JournalFiles = flags.journalFiles
	}
	if cmd.Flags().Changed("staging-file") || cmd.Flags().Changed("staging-command") {
		cfg.StagingFiles = flags.stagingFiles
		cfg.StagingCommand = flags.stagingCommand
	}
	if cmd.Flags().Changed("port") {
		cfg.HTTPPort = flags.port
	}

	path := flags.configFile
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path, _ = config.FindProjectFile(wd)
	}
	if path != "" {
		if err := cfg.ApplyProjectFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

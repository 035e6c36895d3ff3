// Package cli provides the command-line interface for the chat app.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/chat-app/internal/config"
	"github.com/suPer8Hu/chat-app/internal/settings"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	cfg    config.Config
	logger *slog.Logger
	store  *settings.Store

	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:     "chatapp",
	Short:   "Personal chatbot backed by a local model",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		logger, closeLog = config.SetupLogger(cfg.LogFile, config.ParseLogLevel(cfg.LogLevel))

		store = settings.NewStore(cfg.ConfigFile, logger)
		if _, _, err := store.EnsureInitialized(); err != nil {
			return err
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, chatCmd, configCmd, historyCmd, modelsCmd)
}

// Execute runs the root command. The log file is closed whether or not the
// command succeeded.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := closeLogFile(); err == nil {
		err = cerr
	}
	return err
}

func closeLogFile() error {
	if closeLog == nil {
		return nil
	}
	err := closeLog()
	closeLog = nil
	return err
}

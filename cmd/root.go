// Package cmd implements the chatsift command-line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/chatsift/internal/config"
)

var (
	configFlag  string
	verboseFlag bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatsift",
		Short: "Reconstruct chat transcripts from the IDE's local storage",
		Long: `chatsift reads the IDE's workspace state database and log files,
reconstructs the human/assistant conversations scattered across them,
and writes a prioritized markdown transcript.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verboseFlag)
		},
	}
	cmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file path (default ~/.config/chatsift/config.json)")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(extractCmd())
	cmd.AddCommand(analyzeCmd())
	cmd.AddCommand(watchCmd())
	cmd.AddCommand(doctorCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func resolveConfigPath() string {
	if configFlag != "" {
		return config.ExpandHome(configFlag)
	}
	return config.DefaultPath()
}

func loadConfig() *config.Config {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "capyboard",
	Short: "Capyboard renders social graphics for the community channels",
	Long: `Capyboard composes the capybara mascot and renders the episode, event,
highlight, stats and video overlay layouts, exporting them as PNG or SVG.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.json", "Path to the JSON or YAML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configPath returns the --config flag of cmd.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

// newLogger builds the text logger used by every command.
func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}

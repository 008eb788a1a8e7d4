// Package cmd implements the CLI commands for podcast-mirror.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "podcast-mirror",
	Short: "Mirror a podcast catalog from an upstream provider",
	Long: "An API-first service that mirrors podcast show and episode metadata " +
		"from an upstream catalog, keeps tracked shows fresh on a schedule, and " +
		"serves cached, rate-limited catalog reads with per-user subscriptions " +
		"and playback progress.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Package cmd implements the pmctl CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/podcast-mirror/internal/api/client"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "pmctl",
		Short: "CLI client for Podcast Mirror",
		Long: "pmctl is a command-line client for the Podcast Mirror API.\n" +
			"It lets you search the catalog, manage tracked shows and\n" +
			"subscriptions, and trigger sync passes from the terminal.",
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default $HOME/.pmctl.yaml)")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")
	rootCmd.PersistentFlags().
		String("user", "", "user id sent with catalog requests")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))
	cobra.CheckErr(viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user")))

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(showsCmd())
	rootCmd.AddCommand(episodesCmd())
	rootCmd.AddCommand(subsCmd())
	rootCmd.AddCommand(progressCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(quotaCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pmctl")
	}

	viper.SetEnvPrefix("PMCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newClient() *apiclient.Client {
	opts := []apiclient.Option{}
	if user := viper.GetString("user"); user != "" {
		opts = append(opts, apiclient.WithUserID(user))
	}
	return apiclient.New(viper.GetString("server"), opts...)
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}

// requireUser returns the configured user id or an error for commands
// that only make sense for a specific user.
func requireUser() (string, error) {
	user := viper.GetString("user")
	if user == "" {
		return "", fmt.Errorf("a user id is required; pass --user or set PMCTL_USER")
	}
	return user, nil
}

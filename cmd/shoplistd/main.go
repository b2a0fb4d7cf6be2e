// Command shoplistd serves the shoplist user, client app and OAuth2 API.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/shoplist/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags configFlags

	rootCmd := &cobra.Command{
		Use:          "shoplistd",
		Short:        "shoplist account and OAuth2 service",
		Version:      version.Get().Short(),
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate(version.Get().String("shoplistd") + "\n")
	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default: ./config.yml or ./config/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file loaded before the environment")

	rootCmd.AddCommand(newServeCmd(&flags))
	rootCmd.AddCommand(newSweepCmd(&flags))
	rootCmd.AddCommand(newMigrateCmd(&flags))
	return rootCmd
}

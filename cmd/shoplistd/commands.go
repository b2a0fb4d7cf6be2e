package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kbukum/shoplist/app"
	"github.com/kbukum/shoplist/config"
)

type configFlags struct {
	configFile string
	envFile    string
}

func (f *configFlags) load() (*app.Config, error) {
	var opts []config.LoaderOption
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}
	return app.LoadConfig(opts...)
}

func newServeCmd(flags *configFlags) *cobra.Command {
	var (
		port       int
		tokenStore string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		Long: `Start the configured stores, the expiry sweeper and the HTTP server.
SIGINT or SIGTERM drains in-flight requests and shuts down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("token-store") {
				cfg.TokenStore = tokenStore
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	cmd.Flags().StringVar(&tokenStore, "token-store", "", "override token_store: memory, sql or redis")
	return cmd
}

func newSweepCmd(flags *configFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Purge expired access tokens and authorization codes once",
		Long: `Delete expired entries from the configured token store and print how
many were removed per resource. Redis expires entries itself, so there
the command removes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			return a.RunTask(cmd.Context(), func(ctx context.Context) error {
				removed, err := a.Sweep(ctx)
				printSwept(cmd, removed)
				return err
			})
		},
	}
}

func printSwept(cmd *cobra.Command, removed map[string]int64) {
	resources := make([]string, 0, len(removed))
	for r := range removed {
		resources = append(resources, r)
	}
	sort.Strings(resources)
	for _, r := range resources {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", r, removed[r])
	}
}

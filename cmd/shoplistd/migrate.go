package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kbukum/shoplist/database"
	"github.com/kbukum/shoplist/database/migration"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/repository/sqlstore"
)

func newMigrateCmd(flags *configFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert the versioned SQL schema",
		Long: `Manage the schema of the configured database with the versioned
scripts shipped in the binary. Set database.migrations to "sql" so that
serve applies the same scripts on start.`,
	}

	run := func(op func(*migration.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled {
				return fmt.Errorf("migrate needs database.enabled")
			}
			log := logger.New(&cfg.Logging, cfg.Name)

			db, err := database.Open(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := db.Migrator(sqlstore.Migrations(db.Driver()))
			if err != nil {
				return err
			}
			if err := op(m); err != nil {
				return err
			}
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", v, dirty)
			return nil
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending script",
		Args:  cobra.NoArgs,
		RunE:  run((*migration.Migrator).Up),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert every applied script",
		Args:  cobra.NoArgs,
		RunE:  run((*migration.Migrator).Down),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "steps N",
		Short: "Apply N scripts, or revert -N",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("steps needs a non-zero integer, got %q", args[0])
			}
			return run(func(m *migration.Migrator) error { return m.Steps(n) })(cmd, args)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE:  run(func(*migration.Migrator) error { return nil }),
	})
	return cmd
}

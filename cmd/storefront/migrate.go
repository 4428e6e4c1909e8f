package main

import (
	"database/sql"
	"fmt"

	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the relational schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Parse()
		if err != nil {
			return err
		}
		conn, err := db.Open(cmd.Context(), cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.RunMigrations(conn, cfg.DBDriver); err != nil {
			return err
		}
		return printVersion(cmd, conn, cfg.DBDriver)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Parse()
		if err != nil {
			return err
		}
		conn, err := db.Open(cmd.Context(), cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer conn.Close()
		return printVersion(cmd, conn, cfg.DBDriver)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateVersionCmd)
}

func printVersion(cmd *cobra.Command, conn *sql.DB, driver string) error {
	version, dirty, ok, err := db.MigrationVersion(conn, driver)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch {
	case !ok:
		fmt.Fprintln(out, "no migrations applied")
	case dirty:
		fmt.Fprintf(out, "schema version %d (dirty)\n", version)
	default:
		fmt.Fprintf(out, "schema version %d\n", version)
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fraudintel/internal/platform/config"
	"fraudintel/internal/platform/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := openDB(ctx, config.FromEnv())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrations.Up(ctx, db); err != nil {
			return err
		}
		v, err := migrations.Version(ctx, db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// Package main is the operator CLI for the search service: schema
// migrations, dataset seeding, account provisioning and dev tokens.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fraudintel/internal/platform/config"
	"fraudintel/internal/platform/postgres"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "searchctl",
	Short: "Operate the fraud-intelligence search service",
	Long: `searchctl runs the operational tasks the server does not: applying
migrations, seeding the decoy dataset into Redis, importing authoritative
records, provisioning accounts and minting development tokens.

Connection settings come from the same environment variables as the server
(DATABASE_URL, REDIS_URL, JWT_SIGNING_KEY, ...).`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of searchctl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "searchctl %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func openDB(ctx context.Context, cfg config.Server) (*sql.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return postgres.Open(ctx, cfg.Database)
}

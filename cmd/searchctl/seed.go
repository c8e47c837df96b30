package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fraudintel/internal/platform/config"
	"fraudintel/internal/platform/redis"
	"fraudintel/internal/search/decoy"
	"fraudintel/internal/search/models"
	searchstore "fraudintel/internal/search/store"
)

var seedDecoyCmd = &cobra.Command{
	Use:   "seed-decoy",
	Short: "Push the decoy dataset into Redis",
	Long: `seed-decoy writes the decoy dataset to the Redis key the server reads.
Without --file the dataset embedded in the binary is used. Running servers
pick up the new dataset after POST /admin/decoy/refresh or a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromEnv()
		file, _ := cmd.Flags().GetString("file")

		records, err := loadRecords(ctx, file)
		if err != nil {
			return err
		}

		client, err := redis.New(ctx, cfg.Redis)
		if errors.Is(err, redis.ErrNotConfigured) {
			return fmt.Errorf("REDIS_URL is required")
		}
		if err != nil {
			return err
		}
		defer client.Close()

		if err := decoy.NewRedisSource(client.Client, cfg.Decoy.RedisKey).Seed(ctx, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d decoy records into %s\n", len(records), cfg.Decoy.RedisKey)
		return nil
	},
}

var importRecordsCmd = &cobra.Command{
	Use:   "import-records",
	Short: "Upsert authoritative records from a YAML file into Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			return fmt.Errorf("--file is required")
		}
		records, err := loadRecords(ctx, file)
		if err != nil {
			return err
		}

		db, err := openDB(ctx, config.FromEnv())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := searchstore.NewPostgres(db).Insert(ctx, records...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", len(records))
		return nil
	},
}

// loadRecords reads a YAML dataset from file, or the embedded decoy dataset
// when file is empty.
func loadRecords(ctx context.Context, file string) ([]models.Record, error) {
	if file == "" {
		return decoy.EmbeddedSource{}.Load(ctx)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return decoy.ParseYAML(data)
}

func init() {
	seedDecoyCmd.Flags().String("file", "", "YAML dataset to seed instead of the embedded one")
	importRecordsCmd.Flags().String("file", "", "YAML dataset with a top-level records list")

	rootCmd.AddCommand(seedDecoyCmd, importRecordsCmd)
}

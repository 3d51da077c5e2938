package cmd

import (
	"errors"
	"fmt"
	"log"

	"unishop/internal/database"
	"unishop/internal/fixtures"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo dataset into the configured database",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.UseMockData {
		return errors.New("seed writes to a database; run with --mock=false")
	}

	ctx := cmd.Context()
	store, closeStore, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(ctx); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	if err := fixtures.Seed(ctx, store); err != nil {
		return err
	}
	log.Printf("Seeded %s database with demo data (password %q for every account)", cfg.DBDriver, fixtures.DemoPassword)
	return nil
}

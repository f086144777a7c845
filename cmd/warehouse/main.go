package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rupeelog/rupeelog/internal/config"
	"github.com/rupeelog/rupeelog/internal/domain"
	"github.com/rupeelog/rupeelog/internal/logger"
	"github.com/rupeelog/rupeelog/internal/store"
	"github.com/rupeelog/rupeelog/internal/warehouse"
)

func main() {
	monthStr := flag.String("month", "", "Month to sync in YYYY-MM format (required)")
	userID := flag.String("user", "", "User ID to sync (required)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.LogLevel)

	// Validate required flags
	if *monthStr == "" {
		log.Fatal().Msg("Error: --month is required")
	}
	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	month, err := domain.ParseMonth(*monthStr)
	if err != nil {
		log.Fatal().Err(err).Str("month", *monthStr).Msg("Error: invalid month format, expected YYYY-MM")
	}
	if cfg.BQProject == "" {
		log.Fatal().Msg("Error: BQ_PROJECT is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()

	wh, err := warehouse.NewBigQueryWarehouse(ctx, cfg.BQProject, cfg.BQDataset, cfg.BQTable)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer wh.Close()

	res, err := warehouse.NewSyncer(st, wh).SyncMonth(ctx, *userID, month, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d inserted, %d deleted, %d skipped of %d ledger rows.\n",
		res.Inserted, res.Deleted, res.Skipped, res.Total)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rupeelog/rupeelog/internal/config"
	"github.com/rupeelog/rupeelog/internal/logger"
	"github.com/rupeelog/rupeelog/internal/store"
	"github.com/rupeelog/rupeelog/internal/warehouse"
)

func main() {
	ensureWarehouse := flag.Bool("warehouse", false, "Also create the BigQuery expenses table when missing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()

	log.Info().Msg("Applying schema migrations")
	if err := st.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	fmt.Println("Database is up to date.")

	if !*ensureWarehouse {
		return
	}

	if cfg.BQProject == "" {
		log.Fatal().Msg("Error: BQ_PROJECT is required with -warehouse")
	}
	wh, err := warehouse.NewBigQueryWarehouse(ctx, cfg.BQProject, cfg.BQDataset, cfg.BQTable)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer wh.Close()

	if err := wh.EnsureTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure warehouse table")
	}
	fmt.Printf("Warehouse table %s.%s.%s is ready.\n", cfg.BQProject, cfg.BQDataset, cfg.BQTable)
}

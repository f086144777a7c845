package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rupeelog/rupeelog/internal/blob"
	"github.com/rupeelog/rupeelog/internal/config"
	"github.com/rupeelog/rupeelog/internal/importer"
	"github.com/rupeelog/rupeelog/internal/logger"
	"github.com/rupeelog/rupeelog/internal/store"
)

func main() {
	interval := flag.Duration("interval", 0, "Sweep repeatedly at this interval (0 = run once and exit)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg.LogLevel)

	ctx := logger.WithContext(context.Background(), log)

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()

	blobStore, err := blob.NewGCSStorage(ctx, cfg.GCSBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer blobStore.Close()

	// Only the store and blob sides of the pipeline are needed for sweeping.
	svc := importer.NewService(st, blobStore, nil, nil, nil, importer.Config{
		RetentionTTL: cfg.ImportTTL,
	})

	if *interval <= 0 {
		n, err := svc.CleanupExpired(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Sweep failed")
		}
		fmt.Printf("Removed %d expired imports.\n", n)
		return
	}

	log.Info().Dur("interval", *interval).Msg("Starting retention sweeper")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		n, err := svc.CleanupExpired(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Sweep failed")
		} else if n > 0 {
			log.Info().Int("removed", n).Msg("Removed expired imports")
		}

		select {
		case <-quit:
			log.Info().Msg("Retention sweeper exited")
			return
		case <-ticker.C:
		}
	}
}

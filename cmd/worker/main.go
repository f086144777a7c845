package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rupeelog/rupeelog/internal/ai"
	"github.com/rupeelog/rupeelog/internal/blob"
	"github.com/rupeelog/rupeelog/internal/config"
	"github.com/rupeelog/rupeelog/internal/importer"
	"github.com/rupeelog/rupeelog/internal/jobs/inmemory"
	"github.com/rupeelog/rupeelog/internal/logger"
	"github.com/rupeelog/rupeelog/internal/store"
)

func main() {
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

	gemini, err := ai.NewGemini(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	// The in-memory queue only sees jobs published in this process; point
	// this at Cloud Tasks or Pub/Sub to run workers separately from the API.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, cfg.Workers, jobStore)

	svc := importer.NewService(st, blobStore, gemini, gemini, jobQueue, importer.Config{
		MaxUploadBytes: cfg.MaxUploadBytes,
		RetentionTTL:   cfg.ImportTTL,
	})

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := jobQueue.Start(workerCtx, svc.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Int("workers", cfg.Workers).Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rupeelog/rupeelog/internal/ai"
	"github.com/rupeelog/rupeelog/internal/api"
	"github.com/rupeelog/rupeelog/internal/blob"
	"github.com/rupeelog/rupeelog/internal/budget"
	"github.com/rupeelog/rupeelog/internal/config"
	"github.com/rupeelog/rupeelog/internal/importer"
	"github.com/rupeelog/rupeelog/internal/insights"
	"github.com/rupeelog/rupeelog/internal/jobs/inmemory"
	"github.com/rupeelog/rupeelog/internal/logger"
	"github.com/rupeelog/rupeelog/internal/store"
)

func main() {
	port := flag.String("port", "", "HTTP server port (overrides PORT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.New(cfg.LogLevel)

	ctx := context.Background()

	// Postgres
	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Blob storage for uploaded statements
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("GCS_BUCKET is required")
	}
	blobStore, err := blob.NewGCSStorage(ctx, cfg.GCSBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer blobStore.Close()

	// Gemini backs statement parsing, categorization and insights
	gemini, err := ai.NewGemini(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	// Job infrastructure. In-memory is fine for a single instance; swap for
	// Cloud Tasks or Pub/Sub when scaling out.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, cfg.Workers, jobStore)

	importSvc := importer.NewService(st, blobStore, gemini, gemini, jobQueue, importer.Config{
		MaxUploadBytes: cfg.MaxUploadBytes,
		RetentionTTL:   cfg.ImportTTL,
	})
	budgetSvc := budget.NewService(st)
	insightSvc := insights.NewService(st, gemini, cfg.InsightTimeout, cfg.CurrencySymbol)

	// Process import jobs in-process
	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(ctx, log))
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, importSvc.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	router := api.NewRouter(api.Deps{
		Expenses:   st,
		Categories: st,
		Settings:   st,
		Budget:     budgetSvc,
		Insights:   insightSvc,
		Imports:    importSvc,
		Jobs:       jobStore,
		JWTSecret:  cfg.JWTSecret,
		Log:        log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

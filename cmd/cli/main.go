package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/rupeelog/rupeelog/internal/ai"
	"github.com/rupeelog/rupeelog/internal/blob"
	"github.com/rupeelog/rupeelog/internal/budget"
	"github.com/rupeelog/rupeelog/internal/config"
	"github.com/rupeelog/rupeelog/internal/domain"
	"github.com/rupeelog/rupeelog/internal/importer"
	"github.com/rupeelog/rupeelog/internal/jobs/inmemory"
	"github.com/rupeelog/rupeelog/internal/logger"
	"github.com/rupeelog/rupeelog/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "upload":
		runUpload()
	case "parse":
		runParse()
	case "watch":
		runWatch()
	case "health":
		runHealth()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Rupeelog CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  upload    Upload a statement PDF and create a pending import")
	fmt.Println("  parse     Extract transactions from an import and wait for the result")
	fmt.Println("  watch     Poll an import until the pipeline stops moving it")
	fmt.Println("  health    Print the budget health report for a month")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func setup() (config.Config, zerolog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}
	return cfg, logger.New(cfg.LogLevel)
}

func openStoreAndBlob(ctx context.Context, cfg config.Config, log zerolog.Logger) (*store.Store, *blob.GCSStorage) {
	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	blobStore, err := blob.NewGCSStorage(ctx, cfg.GCSBucket)
	if err != nil {
		st.Close()
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	return st, blobStore
}

func runUpload() {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	userID := fs.String("user", "", "User ID owning the import (required)")
	filePath := fs.String("file", "", "Path to the statement PDF (required)")
	fs.Parse(os.Args[2:])

	cfg, log := setup()
	if *userID == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -user ID -file PATH")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, blobStore := openStoreAndBlob(ctx, cfg, log)
	defer st.Close()
	defer blobStore.Close()

	svc := importer.NewService(st, blobStore, nil, nil, nil, importer.Config{
		MaxUploadBytes: cfg.MaxUploadBytes,
		RetentionTTL:   cfg.ImportTTL,
	})

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	defer f.Close()

	res, err := svc.Upload(ctx, *userID, filepath.Base(*filePath), f)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Created import %s (%s)\n", res.Import.ID, res.Import.FileName)
	if res.DuplicateOfID != "" {
		fmt.Printf("Warning: identical file was already uploaded as import %s\n", res.DuplicateOfID)
	}
}

func runParse() {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	userID := fs.String("user", "", "User ID owning the import (required)")
	importID := fs.String("import-id", "", "Import ID to parse (required)")
	password := fs.String("password", "", "PDF password for protected statements")
	fs.Parse(os.Args[2:])

	cfg, log := setup()
	if *userID == "" || *importID == "" {
		log.Fatal().Msg("Usage: cli parse -user ID -import-id ID [-password PASS]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, blobStore := openStoreAndBlob(ctx, cfg, log)
	defer st.Close()
	defer blobStore.Close()

	gemini, err := ai.NewGemini(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	// Run the job in-process: publish to a local queue, consume it here and
	// watch the import until it settles.
	jobQueue := inmemory.NewQueue(1, 1, inmemory.NewStore())
	defer jobQueue.Close()

	svc := importer.NewService(st, blobStore, gemini, gemini, jobQueue, importer.Config{
		MaxUploadBytes: cfg.MaxUploadBytes,
		RetentionTTL:   cfg.ImportTTL,
	})
	if err := jobQueue.Start(ctx, svc.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	if _, err := svc.Parse(ctx, *userID, *importID, *password); err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}

	si := waitForImport(ctx, log, svc, *userID, *importID, true)
	switch {
	case si.PasswordRequired && si.Status == domain.StatusPending:
		log.Fatal().Msg("Statement is password-protected; re-run with -password")
	case si.Status == domain.StatusFailed:
		log.Fatal().Str("error", si.ErrorMessage).Msg("Parse failed")
	}

	fmt.Printf("Extracted %d transactions.\n", si.TotalTransactions)
	if si.BankName != "" {
		fmt.Printf("Bank: %s\n", si.BankName)
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	userID := fs.String("user", "", "User ID owning the import (required)")
	importID := fs.String("import-id", "", "Import ID to watch (required)")
	fs.Parse(os.Args[2:])

	cfg, log := setup()
	if *userID == "" || *importID == "" {
		log.Fatal().Msg("Usage: cli watch -user ID -import-id ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()

	// Only the read side of the pipeline is needed for watching.
	svc := importer.NewService(st, nil, nil, nil, nil, importer.Config{})

	si := waitForImport(ctx, log, svc, *userID, *importID, false)

	fmt.Printf("\n=== Import %s ===\n", si.ID)
	fmt.Printf("File:     %s\n", si.FileName)
	fmt.Printf("Status:   %s\n", si.Status)
	if si.BankName != "" {
		fmt.Printf("Bank:     %s\n", si.BankName)
	}
	fmt.Printf("Rows:     %d extracted, %d imported\n", si.TotalTransactions, si.ImportedTransactions)
	if si.PasswordRequired {
		fmt.Println("Waiting:  statement needs a password")
	}
	if si.ErrorMessage != "" {
		fmt.Printf("Error:    %s\n", si.ErrorMessage)
	}
}

// waitForImport polls until the import settles. A password wait parks the
// import in pending, which would otherwise poll forever, so it stops the
// watch too. With requireProgress set that stop only applies after this
// process has seen the import in processing: a freshly enqueued retry still
// carries the stale password flag from the attempt it is about to replace.
func waitForImport(ctx context.Context, log zerolog.Logger, svc *importer.Service, userID, importID string, requireProgress bool) *domain.StatementImport {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		last     domain.ImportStatus
		sawWork  bool
		passWait *domain.StatementImport
	)
	si, err := importer.NewWatcher(svc).Watch(watchCtx, userID, importID, func(si *domain.StatementImport) {
		if si.Status != last {
			log.Info().Str("status", string(si.Status)).Msg("Import status")
			last = si.Status
		}
		if si.Status == domain.StatusProcessing {
			sawWork = true
		}
		if si.PasswordRequired && si.Status == domain.StatusPending && (sawWork || !requireProgress) {
			passWait = si
			cancel()
		}
	})
	if passWait != nil {
		return passWait
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Watch failed")
	}
	return si
}

func runHealth() {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	userID := fs.String("user", "", "User ID (required)")
	monthStr := fs.String("month", "", "Month in YYYY-MM format (defaults to the current month)")
	fs.Parse(os.Args[2:])

	cfg, log := setup()
	if *userID == "" {
		log.Fatal().Msg("Usage: cli health -user ID [-month YYYY-MM]")
	}

	month := domain.CurrentMonth()
	if *monthStr != "" {
		m, err := domain.ParseMonth(*monthStr)
		if err != nil {
			log.Fatal().Err(err).Str("month", *monthStr).Msg("Error: invalid month format, expected YYYY-MM")
		}
		month = m
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()

	report, err := budget.NewService(st).Health(ctx, *userID, month)
	if err != nil {
		log.Fatal().Err(err).Msg("Health evaluation failed")
	}

	fmt.Printf("\n=== Budget Health %s ===\n", report.Month)
	fmt.Printf("Score:   %d (%s)\n", report.Score, report.Band)
	fmt.Printf("Budget:  %s\n", report.TotalBudget.StringFixed(2))
	fmt.Printf("Spent:   %s\n", report.TotalSpent.StringFixed(2))
	fmt.Printf("Savings: %s projected\n", report.ProjectedSavings.StringFixed(2))

	fmt.Println("\n=== Buckets ===")
	for _, tr := range report.Types {
		line := fmt.Sprintf("%-8s target %d%%", tr.Type, tr.TargetPct)
		if tr.ActualPct != nil {
			line += fmt.Sprintf(", actual %.0f%%", *tr.ActualPct)
		}
		fmt.Println(line)
	}

	fmt.Printf("\n=== Categories (%d) ===\n", len(report.Categories))
	for _, c := range report.Categories {
		marker := " "
		switch {
		case c.OverBudget:
			marker = "!"
		case c.NearLimit:
			marker = "~"
		}
		line := fmt.Sprintf("%s %-20s %s spent", marker, c.Name, c.Spent.StringFixed(2))
		if c.Budget.Valid {
			line += fmt.Sprintf(" of %s", c.Budget.Decimal.StringFixed(2))
		}
		if c.Usage != nil {
			line += fmt.Sprintf(" (%.0f%%)", *c.Usage)
		}
		fmt.Println(line)
	}

	if len(report.Suggestions) > 0 {
		shown, held := budget.Display(report.Suggestions, 0)
		fmt.Println("\n=== Suggestions ===")
		for _, s := range shown {
			fmt.Printf("[%s] %s\n       %s\n", s.Kind, s.Title, s.Body)
		}
		if held > 0 {
			fmt.Printf("(and %d more)\n", held)
		}
	}
	fmt.Println()
}

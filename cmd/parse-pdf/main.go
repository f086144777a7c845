package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rupeelog/rupeelog/internal/ai"
	"github.com/rupeelog/rupeelog/internal/importer"
	"github.com/rupeelog/rupeelog/internal/logger"
)

// Debug harness for the statement parser: feed it a local PDF and inspect
// what the model extracts, without touching the database or blob storage.
func main() {
	filePath := flag.String("file", "", "Path to a local statement PDF (required)")
	password := flag.String("password", "", "PDF password for protected statements")
	model := flag.String("model", "", "Gemini model name (defaults to GEMINI_MODEL, then gemini-2.5-flash)")
	flag.Parse()

	log := logger.New("info")

	if *filePath == "" {
		log.Fatal().Msg("Usage: parse-pdf -file /path/to/statement.pdf [-password PASS] [-model NAME]")
	}

	name := *model
	if name == "" {
		name = os.Getenv("GEMINI_MODEL")
	}
	if name == "" {
		name = "gemini-2.5-flash"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read PDF")
	}
	if !importer.IsPDF(data) {
		log.Fatal().Msg("File is not a PDF")
	}
	if importer.IsEncrypted(data) {
		if *password == "" {
			log.Fatal().Msg("Statement is password-protected; re-run with -password")
		}
		data, err = importer.DecryptPDF(ctx, data, *password)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to decrypt PDF")
		}
	}

	gemini, err := ai.NewGemini(ctx, name)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	log.Info().Str("model", name).Str("file", *filePath).Msg("Parsing statement")

	parsed, err := gemini.ParseStatement(ctx, data)
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}

	if parsed.BankName != "" {
		fmt.Printf("Bank:   %s\n", parsed.BankName)
	}
	if parsed.PeriodStart != nil && parsed.PeriodEnd != nil {
		fmt.Printf("Period: %s to %s\n",
			parsed.PeriodStart.Format("2006-01-02"), parsed.PeriodEnd.Format("2006-01-02"))
	}

	fmt.Printf("\n=== Transactions (%d) ===\n", len(parsed.Transactions))
	for i, t := range parsed.Transactions {
		sign := "-"
		if t.Type == "credit" {
			sign = "+"
		}
		fmt.Printf("%3d. %s  %s%s  %s\n", i+1, t.Date.Format("2006-01-02"), sign, t.Amount.StringFixed(2), t.Description)
		if t.HasBalance {
			fmt.Printf("     balance %s\n", t.Balance.StringFixed(2))
		}
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/eastouest/real-estate-alerter/internal/config"
	"github.com/eastouest/real-estate-alerter/internal/domain"
	"github.com/eastouest/real-estate-alerter/internal/gcs"
	infraBQ "github.com/eastouest/real-estate-alerter/internal/infra/bigquery"
	"github.com/eastouest/real-estate-alerter/internal/ingest"
	"github.com/eastouest/real-estate-alerter/internal/logger"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "load":
		runLoad(log)
	case "inspect":
		runInspect(log)
	case "label":
		runLabel(log)
	case "upload":
		runUpload(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Real Estate Alerter CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  load      Load a working set from a warehouse table or a local CSV")
	fmt.Println("  inspect   Show one transaction's full details")
	fmt.Println("  label     Persist a newsworthiness label for a transaction")
	fmt.Println("  upload    Archive a local CSV to GCS")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runLoad(log zerolog.Logger) {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	table := fs.String("table", "", "Warehouse table to load (newsworthy or non_newsworthy)")
	csvPath := fs.String("csv", "", "Local CSV file to load instead of the warehouse")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	set := loadWorkingSet(ctx, log, *table, *csvPath)

	fmt.Printf("\n=== Working Set (%d rows) ===\n", len(set))
	for i, t := range set {
		labeled := "unreviewed"
		if t.Label.Labeled() {
			if *t.Label.Newsworthy {
				labeled = "newsworthy"
			} else {
				labeled = "not newsworthy"
			}
		}
		fmt.Printf("%d. %s  [%s]\n", i+1, t.ID, labeled)
		fmt.Printf("   %s | %s | %.0f\n", t.District, t.PropertyType, t.Price)
	}
	fmt.Println()
}

func runInspect(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	table := fs.String("table", "", "Warehouse table to load")
	csvPath := fs.String("csv", "", "Local CSV file to load instead of the warehouse")
	txID := fs.String("transaction-id", "", "Transaction ID to inspect")
	fs.Parse(os.Args[2:])

	if *txID == "" {
		log.Fatal().Msg("Error: --transaction-id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	set := loadWorkingSet(ctx, log, *table, *csvPath)

	var found *domain.Transaction
	for i := range set {
		if set[i].ID == *txID {
			found = &set[i]
			break
		}
	}
	if found == nil {
		log.Fatal().Str("transaction_id", *txID).Msg("Transaction not found in working set")
	}

	fmt.Println("\n=== Transaction Details ===")
	fmt.Printf("ID:            %s\n", found.ID)
	fmt.Printf("Alert:         %s\n", found.Alert)
	fmt.Printf("Description:   %s\n", found.Description)
	fmt.Printf("District:      %s\n", found.District)
	fmt.Printf("Property type: %s\n", found.PropertyType)
	fmt.Printf("Price:         %.0f\n", found.Price)
	fmt.Printf("Price/sqm:     %.0f\n", found.PricePerSqm)
	fmt.Printf("Area:          %.1f\n", found.Area)
	fmt.Printf("Rooms:         %d\n", found.Rooms)
	fmt.Printf("Sale type:     %s\n", found.SaleType)
	fmt.Printf("Created:       %s\n", found.CreatedDate)
	if found.Label.Labeled() {
		fmt.Printf("Newsworthy:    %t\n", *found.Label.Newsworthy)
		fmt.Printf("Comment:       %s\n", found.Label.Comment)
	} else {
		fmt.Println("Newsworthy:    (unreviewed)")
	}
	if len(found.Details) > 0 {
		fmt.Printf("\n=== Raw Details (%d fields) ===\n", len(found.Details))
		for k, v := range found.Details {
			fmt.Printf("  %-35s %v\n", k+":", v)
		}
	}
	fmt.Println()
}

func runLabel(log zerolog.Logger) {
	fs := flag.NewFlagSet("label", flag.ExitOnError)
	table := fs.String("table", "", "Warehouse table holding the transaction")
	txID := fs.String("transaction-id", "", "Transaction ID to label")
	newsworthy := fs.Bool("newsworthy", false, "Whether the transaction is newsworthy")
	comment := fs.String("comment", "", "Optional reviewer comment")
	fs.Parse(os.Args[2:])

	if *txID == "" {
		log.Fatal().Msg("Error: --transaction-id is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *table == "" {
		*table = cfg.DefaultTable
	}
	if !infraBQ.ValidTable(*table) {
		log.Fatal().Str("table", *table).Msg("Unknown table")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewAlertRepository(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	writer := repo.LabelWriter(*table)
	if err := writer.UpdateLabel(ctx, *txID, *newsworthy, *comment, time.Now()); err != nil {
		log.Fatal().Err(err).Msg("Label write failed")
	}

	fmt.Printf("Labeled %s: newsworthy=%t\n", *txID, *newsworthy)
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucket := fs.String("bucket", "", "GCS bucket name (defaults to configured bucket)")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local CSV file")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -file PATH [-bucket NAME] [-object NAME]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *bucket == "" {
		*bucket = cfg.Bucket
	}
	if *bucket == "" {
		log.Fatal().Msg("No bucket given and none configured")
	}
	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	defer f.Close()

	ctx := logger.WithContext(context.Background(), log)

	log.Info().
		Str("bucket", *bucket).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading CSV to GCS")

	uri, err := gcs.Upload(ctx, *bucket, *objectName, "text/csv", f)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

// loadWorkingSet loads from a local CSV when given, else from the warehouse.
// Any load failure is fatal; there is no partial working set.
func loadWorkingSet(ctx context.Context, log zerolog.Logger, table, csvPath string) []domain.Transaction {
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open CSV")
		}
		defer f.Close()

		set, err := ingest.Parse(f)
		if err != nil {
			log.Fatal().Err(err).Str("file", csvPath).Msg("Failed to parse CSV")
		}
		return set
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if table == "" {
		table = cfg.DefaultTable
	}
	if !infraBQ.ValidTable(table) {
		log.Fatal().Str("table", table).Msg("Unknown table")
	}

	repo, err := infraBQ.NewAlertRepository(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	set, err := repo.WorkingSet(ctx, table)
	if err != nil {
		log.Fatal().Err(err).Str("table", table).Msg("Failed to load working set")
	}
	return set
}

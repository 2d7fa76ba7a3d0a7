package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/meur/wftracker/internal/catalog"
	"github.com/meur/wftracker/internal/config"
	"github.com/meur/wftracker/internal/logging"
	"github.com/meur/wftracker/internal/models"
	"github.com/meur/wftracker/internal/storage"
	"go.uber.org/zap"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%s✗ Failed to load config: %v%s", colorRed, err, colorReset)
	}

	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	url := flag.String("url", cfg.CatalogURL, "Dataset URL")
	file := flag.String("file", "", "Read the dataset from a local JSON dump instead of the URL")
	timeout := flag.Duration("timeout", cfg.CatalogTimeout, "Download timeout (0 = none)")
	dryRun := flag.Bool("dry-run", false, "Print summary without writing to the database")
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("%s✗ Failed to build logger: %v%s", colorRed, err, colorReset)
	}
	defer logger.Sync()

	var loader catalog.Loader = catalog.NewClient(*url, *timeout)
	source := *url
	if *file != "" {
		loader = catalog.FileLoader{Path: *file}
		source = *file
	}

	start := time.Now()
	items, err := loader.Load(context.Background())
	if err != nil {
		logger.Error("catalog import failed", zap.String("source", source), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("catalog normalized",
		zap.String("source", source),
		zap.Int("items", len(items)),
		zap.Duration("took", time.Since(start)),
	)

	printSummary(items)

	if *dryRun {
		fmt.Printf("%sDry run: nothing written%s\n", colorCyan, colorReset)
		return
	}

	store, err := storage.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()

	if err := store.ReplaceCatalog(items); err != nil {
		logger.Fatal("failed to write catalog snapshot", zap.Error(err))
	}

	n, err := store.CountCatalogItems()
	if err != nil {
		logger.Fatal("failed to count catalog snapshot", zap.Error(err))
	}
	fmt.Printf("%s✓ Cached %d catalog items in %s%s\n", colorGreen, n, *dbPath, colorReset)
}

func printSummary(items []models.CatalogItem) {
	counts := map[models.Category]int{}
	primes := 0
	for _, item := range items {
		counts[item.Category]++
		if item.IsPrime {
			primes++
		}
	}

	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)

	for _, c := range cats {
		fmt.Printf("  %-12s %5d\n", c, counts[models.Category(c)])
	}
	fmt.Printf("  %-12s %5d\n", "prime", primes)
}

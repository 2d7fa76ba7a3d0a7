package main

import (
	"flag"
	"log"
	"os"

	"github.com/meur/wftracker/internal/config"
	"github.com/meur/wftracker/internal/inventory"
	"github.com/meur/wftracker/internal/logging"
	"github.com/meur/wftracker/internal/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	backup := flag.String("backup", inventory.ExportFileName, "Inventory backup JSON to import")
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := storage.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := seedInventory(db, cfg.InventoryKey, *backup, logger); err != nil {
		logger.Fatal("failed to seed inventory", zap.String("backup", *backup), zap.Error(err))
	}
}

func seedInventory(kv inventory.KV, key, path string, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	store, err := inventory.Open(kv, inventory.WithKey(key), inventory.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := store.Import(data); err != nil {
		return err
	}

	logger.Info("seeded inventory", zap.String("backup", path), zap.Int("items", store.Len()))
	return nil
}

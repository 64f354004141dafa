package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vanshika/remitdesk/internal/config"
	"github.com/vanshika/remitdesk/internal/generator"
	"github.com/vanshika/remitdesk/internal/logging"
	"github.com/vanshika/remitdesk/internal/repository"
	"github.com/vanshika/remitdesk/internal/service"
	"github.com/vanshika/remitdesk/internal/store"
)

var errMissingDataset = errors.New("dataset not found")

func main() {
	var (
		datasetDir = flag.String("dataset-dir", "./seed-data", "Directory containing submissions.json")
		filePath   = flag.String("file", "", "Path to a submissions JSON array (overrides dataset-dir)")
		workers    = flag.Int("workers", 4, "Number of concurrent workers for seeding")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "seed")

	path, err := resolveDatasetPath(*datasetDir, *filePath)
	if err != nil {
		logger.Error("dataset resolution failed", "error", err)
		os.Exit(1)
	}

	records, skipped, err := loadSeedRecords(path, logger)
	if err != nil {
		logger.Error("failed to load submissions", "error", err, "path", path)
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Error("submissions dataset empty", "path", path, "skipped", skipped)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	docStore, err := store.Open(ctx, store.Options{
		Driver:         cfg.Store.Driver,
		URI:            cfg.Store.URI,
		Database:       cfg.Store.Database,
		Username:       cfg.Store.Username,
		Password:       cfg.Store.Password,
		DSN:            cfg.Store.DSN,
		MaxConnections: cfg.Store.MaxConnections,
	})
	if err != nil {
		logger.Error("failed to open store", "error", err, "driver", cfg.Store.Driver)
		os.Exit(1)
	}
	defer func() {
		if err := docStore.Close(context.Background()); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}()

	svc := service.NewTransactionService(repository.New(docStore), cfg.App.InvoiceLocation)
	seeder := service.NewSeeder(svc, *workers)

	start := time.Now()
	logger.Info("seeding transactions", "count", len(records), "workers", *workers, "driver", cfg.Store.Driver)
	result, err := seeder.Seed(ctx, records)

	var taskErr *service.TaskError
	switch {
	case errors.As(err, &taskErr):
		for _, e := range taskErr.Errors {
			logger.Warn("record rejected", "error", e)
		}
	case err != nil:
		logger.Error("seeding aborted", "error", err, "inserted", result.Inserted)
		os.Exit(1)
	}

	logger.Info("seeding complete",
		"duration", time.Since(start).String(),
		"inserted", result.Inserted,
		"failed", result.Failed+int64(skipped),
	)
}

func resolveDatasetPath(baseDir, explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("stat %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}
	path := filepath.Join(baseDir, generator.SubmissionsFile)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", errMissingDataset, path)
	}
	return path, nil
}

// loadSeedRecords decodes a JSON array of submissions. Elements that do not
// decode into a submission are logged and skipped.
func loadSeedRecords(path string, logger *slog.Logger) ([]service.SeedRecord, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var items []json.RawMessage
	if err := json.NewDecoder(file).Decode(&items); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}

	records := make([]service.SeedRecord, 0, len(items))
	skipped := 0
	for i, item := range items {
		input, raw, err := service.DecodeSubmission(item)
		if err != nil {
			logger.Warn("skipping undecodable submission", "index", i, "error", err)
			skipped++
			continue
		}
		records = append(records, service.SeedRecord{Input: input, Raw: raw})
	}
	return records, skipped, nil
}

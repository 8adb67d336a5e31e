// Command seed_cities copies the static city dataset file into Postgres so
// the service can run with dataset.source=postgres.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	appLogger "github.com/FACorreiaa/isitsafe/app/logger"
	"github.com/FACorreiaa/isitsafe/config"
	"github.com/FACorreiaa/isitsafe/internal/api/city"
	"github.com/FACorreiaa/isitsafe/internal/container"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	path := flag.String("file", cfg.Dataset.Path, "dataset JSON file to import")
	flag.Parse()

	logger := appLogger.New(os.Getenv("APP_ENV"), os.Stdout)
	ctx := context.Background()

	// Validate before touching the database.
	ds, err := city.NewFileCityRepository(*path, logger).LoadDataset(ctx)
	if err != nil {
		logger.Error("Failed to read dataset", slog.Any("error", err))
		os.Exit(1)
	}
	catalog, err := city.NewCatalog(ds)
	if err != nil {
		logger.Error("Dataset failed validation", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := container.OpenDatabase(ctx, &cfg, logger)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	repo := city.NewPostgresCityRepository(pool, nil, logger)
	if err := repo.SaveDataset(ctx, ds); err != nil {
		logger.Error("Failed to seed cities", slog.Any("error", err))
		pool.Close()
		os.Exit(1)
	}
	logger.Info("Seeded cities", slog.Int("count", catalog.Len()), slog.String("file", *path))
}

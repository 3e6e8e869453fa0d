// Command recalculate recomputes the cached metrics and cumulative equity of
// every stored trade. Run it after changing how metrics are derived.
package main

import (
	"context"
	"fmt"
	"log"

	"tradingJournal/config"
	"tradingJournal/internal/adapters/logger"
	"tradingJournal/internal/adapters/sqlite"
	"tradingJournal/internal/app"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	ctx := context.Background()

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	// 4. Initialize Application Service (no price source needed)
	svc, err := app.NewJournalService(cfg, appLogger, repo, nil)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize journal service: %v", err)
	}

	// 5. Recalculate
	n, err := svc.RecalculateAll(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Recalculation failed")
		log.Fatalf("Error: %v", err)
	}
	fmt.Printf("Recalculated %d trades\n", n)
}

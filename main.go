package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tradingJournal/config"
	"tradingJournal/internal/adapters/binanceclient"
	"tradingJournal/internal/adapters/logger"
	"tradingJournal/internal/adapters/sqlite"
	"tradingJournal/internal/adapters/yahoo"
	"tradingJournal/internal/app"
	"tradingJournal/internal/ports"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[2:]
	switch os.Args[1] {
	case "add":
		withJournal(ctx, func(svc *app.JournalService) error { return runAdd(ctx, svc, args) })
	case "edit":
		withJournal(ctx, func(svc *app.JournalService) error { return runEdit(ctx, svc, args) })
	case "close":
		withJournal(ctx, func(svc *app.JournalService) error { return runClose(ctx, svc, args) })
	case "delete":
		withJournal(ctx, func(svc *app.JournalService) error { return runDelete(ctx, svc, args) })
	case "list":
		withJournal(ctx, func(svc *app.JournalService) error { return runList(ctx, svc, args) })
	case "stats":
		withJournal(ctx, func(svc *app.JournalService) error { return runStats(ctx, svc, args) })
	case "import":
		withJournal(ctx, func(svc *app.JournalService) error { return runImport(ctx, svc, args) })
	case "chart":
		withJournal(ctx, func(svc *app.JournalService) error { return runChart(ctx, svc, args) })
	case "export":
		withJournal(ctx, func(svc *app.JournalService) error { return runExport(ctx, svc, args) })
	case "version":
		fmt.Printf("journal %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// withJournal wires the application, runs fn and exits non-zero on failure.
func withJournal(ctx context.Context, fn func(svc *app.JournalService) error) {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()

	// 4. Initialize Price History Source
	prices, err := newPriceProvider(cfg, appLogger)
	if err != nil {
		appLogger.Warn(ctx, "Price history disabled", map[string]interface{}{"error": err.Error()})
	}

	// 5. Initialize Application Service
	svc, err := app.NewJournalService(cfg, appLogger, repo, prices)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize journal service: %v", err)
	}

	// 6. Run the command
	if err := fn(svc); err != nil {
		appLogger.Error(ctx, err, "Command failed")
		repo.Close()
		appLogger.Sync()
		log.Fatalf("Error: %v", err)
	}
}

func newPriceProvider(cfg *config.Config, appLogger ports.Logger) (ports.PriceHistoryProvider, error) {
	if cfg.PriceSource == config.PriceSourceBinance {
		client, err := binanceclient.New(binanceclient.Config{
			APIKey:    cfg.BinanceAPIKey,
			SecretKey: cfg.BinanceSecretKey,
			Logger:    appLogger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := yahoo.NewClient(yahoo.Config{
		Timeout:  cfg.HTTPTimeout,
		CacheTTL: cfg.PriceCacheTTL,
		Logger:   appLogger,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `journal %s - Stock Trading Journal

Record trades, track risk and review performance.

Usage:
  journal <command> [options]

Commands:
  add       Record a new trade
  edit      Change fields of a trade (--id)
  close     Record the exit of an open trade
  delete    Remove a trade
  list      List trades (filter, sort, table/csv/json)
  stats     Show performance statistics (table/json/yaml)
  import    Import a brokerage transaction dump (JSON)
  chart     Show daily prices for a ticker or a trade
  export    Write all trades to CSV
  version   Print version
  help      Show this help

Examples:
  journal add --ticker AAPL --volume 10 --entry-price 185.5 --stop-loss 180 --target 200
  journal close --id 3 --exit-price 192.1
  journal list --ticker aa --sort profit_loss --desc
  journal stats --format yaml
  journal import --file transactions.json
  journal chart --id 3

Configuration (.env or environment):
  DB_PATH, LOG_LEVEL, LOG_ENCODING, DEFAULT_STOP_LOSS_PCT, DEFAULT_TARGET_PCT,
  TOP_TICKERS, PRICE_SOURCE (yahoo|binance), PRICE_CACHE_TTL_SECONDS,
  HTTP_TIMEOUT_SECONDS, BINANCE_API_KEY, BINANCE_API_SECRET, IMPORT_TIMEZONE

`, version)
}

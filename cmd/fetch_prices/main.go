package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradingJournal/config"
	"tradingJournal/internal/adapters/binanceclient"
	"tradingJournal/internal/adapters/logger"
	"tradingJournal/internal/adapters/yahoo"
	"tradingJournal/internal/ports"
	"tradingJournal/internal/utils"
)

func main() {
	ticker := flag.String("ticker", "", "Ticker symbol (e.g. AAPL, or ETHUSDT with PRICE_SOURCE=binance)")
	days := flag.Int("days", 90, "Number of days of daily bars to fetch")
	outDir := flag.String("out", "data", "Output directory")
	flag.Parse()

	if *ticker == "" {
		flag.Usage()
		os.Exit(2)
	}
	symbol := strings.ToUpper(*ticker)

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
	ctx := context.Background()

	// 3. Initialize Price History Source
	var source ports.PriceHistoryProvider
	if cfg.PriceSource == config.PriceSourceBinance {
		client, err := binanceclient.New(binanceclient.Config{
			APIKey:    cfg.BinanceAPIKey,
			SecretKey: cfg.BinanceSecretKey,
			Logger:    appLogger,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
		}
		source = client
	} else {
		client, err := yahoo.NewClient(yahoo.Config{
			Timeout:  cfg.HTTPTimeout,
			CacheTTL: cfg.PriceCacheTTL,
			Logger:   appLogger,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Yahoo client: %v", err)
		}
		source = client
	}
	appLogger.Info(ctx, "Price source initialized", map[string]interface{}{"source": cfg.PriceSource})

	end := time.Now()
	start := end.AddDate(0, 0, -*days)

	fmt.Printf("Fetching daily bars for %s from %s to %s...\n", symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	bars, err := source.GetPriceHistory(ctx, symbol, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching price history")
		log.Fatalf("Error fetching price history: %v", err)
	}
	appLogger.Info(ctx, "Fetched price bars", map[string]interface{}{"count": len(bars)})

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Error creating output directory: %v", err)
	}
	filename := filepath.Join(*outDir, fmt.Sprintf("%s_1d_%s_to_%s.csv", symbol, start.Format("20060102"), end.Format("20060102")))
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("Error creating CSV: %v", err)
	}
	defer f.Close()

	if err := utils.WritePriceBarsCSV(f, bars); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename})
}

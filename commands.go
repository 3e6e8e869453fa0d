package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tradingJournal/internal/app"
	"tradingJournal/internal/domain"
	"tradingJournal/internal/importer"
	"tradingJournal/internal/indicators"
	"tradingJournal/internal/ports"
	"tradingJournal/internal/utils"
)

const dateLayout = "2006-01-02"

// tradeFlags holds the editable trade fields. Optional values stay strings so
// an empty value can clear them.
type tradeFlags struct {
	ticker     string
	direction  string
	volume     int
	entryPrice float64
	entryDate  string
	stopLoss   string
	target     string
	exitDate   string
	exitPrice  string
}

func (f *tradeFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.ticker, "ticker", "", "Ticker symbol, e.g. AAPL")
	fs.StringVar(&f.direction, "direction", string(domain.Buy), "Buy or Short")
	fs.IntVar(&f.volume, "volume", 0, "Number of shares")
	fs.Float64Var(&f.entryPrice, "entry-price", 0, "Entry price")
	fs.StringVar(&f.entryDate, "entry-date", "", "Entry date (yyyy-mm-dd or RFC3339, default now)")
	fs.StringVar(&f.stopLoss, "stop-loss", "", "Stop-loss price (empty for none)")
	fs.StringVar(&f.target, "target", "", "Target price (empty for none)")
	fs.StringVar(&f.exitDate, "exit-date", "", "Exit date (yyyy-mm-dd or RFC3339)")
	fs.StringVar(&f.exitPrice, "exit-price", "", "Exit price")
}

// apply copies the flags that were set on the command line onto t.
func (f *tradeFlags) apply(fs *flag.FlagSet, t *domain.Trade) error {
	var errs []error
	fs.Visit(func(fl *flag.Flag) {
		var err error
		switch fl.Name {
		case "ticker":
			t.Ticker = f.ticker
		case "direction":
			t.Direction, err = domain.ParseDirection(f.direction)
		case "volume":
			t.Volume = f.volume
		case "entry-price":
			t.EntryPrice = f.entryPrice
		case "entry-date":
			t.EntryDate, err = parseDate(f.entryDate)
		case "stop-loss":
			t.StopLoss, err = parseOptionalFloat(f.stopLoss)
		case "target":
			t.TargetPrice, err = parseOptionalFloat(f.target)
		case "exit-date":
			t.ExitDate, err = parseOptionalDate(f.exitDate)
		case "exit-price":
			t.ExitPrice, err = parseOptionalFloat(f.exitPrice)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", fl.Name, err))
		}
	})
	return errors.Join(errs...)
}

func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: journal %s %s\n\nOptions:\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

func runAdd(ctx context.Context, svc *app.JournalService, args []string) error {
	fs := newFlagSet("add", "--ticker SYM --volume N --entry-price P [options]")
	var tf tradeFlags
	tf.register(fs)
	defaultPlan := fs.Bool("default-plan", false, "Fill a missing stop loss and target from DEFAULT_STOP_LOSS_PCT and DEFAULT_TARGET_PCT")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t := &domain.Trade{Direction: domain.Buy, EntryDate: time.Now()}
	if err := tf.apply(fs, t); err != nil {
		return err
	}
	if *defaultPlan {
		svc.ApplyDefaultPlan(t)
	}

	created, err := svc.CreateTrade(ctx, t)
	if err != nil {
		return err
	}
	printTrade(os.Stdout, created)
	return nil
}

func runEdit(ctx context.Context, svc *app.JournalService, args []string) error {
	fs := newFlagSet("edit", "--id ID [fields to change]")
	id := fs.Int64("id", 0, "Trade ID")
	var tf tradeFlags
	tf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("--id is required: %w", ports.ErrInvalidRequest)
	}

	t, err := svc.GetTrade(ctx, *id)
	if err != nil {
		return err
	}
	if err := tf.apply(fs, t); err != nil {
		return err
	}

	updated, err := svc.UpdateTrade(ctx, t)
	if err != nil {
		return err
	}
	printTrade(os.Stdout, updated)
	return nil
}

func runClose(ctx context.Context, svc *app.JournalService, args []string) error {
	fs := newFlagSet("close", "--id ID --exit-price P [--exit-date D]")
	id := fs.Int64("id", 0, "Trade ID")
	exitPrice := fs.Float64("exit-price", 0, "Exit price")
	exitDate := fs.String("exit-date", "", "Exit date (yyyy-mm-dd or RFC3339, default now)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("--id is required: %w", ports.ErrInvalidRequest)
	}

	when := time.Now()
	if *exitDate != "" {
		var err error
		if when, err = parseDate(*exitDate); err != nil {
			return fmt.Errorf("--exit-date: %w", err)
		}
	}

	closed, err := svc.CloseTrade(ctx, *id, *exitPrice, when)
	if err != nil {
		return err
	}
	printTrade(os.Stdout, closed)
	return nil
}

func runDelete(ctx context.Context, svc *app.JournalService, args []string) error {
	fs := newFlagSet("delete", "--id ID")
	id := fs.Int64("id", 0, "Trade ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("--id is required: %w", ports.ErrInvalidRequest)
	}
	if err := svc.DeleteTrade(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("Trade %d deleted\n", *id)
	return nil
}

func runList(ctx context.Context, svc *app.JournalService, args []string) error {
	fs := newFlagSet("list", "[--ticker SUB] [--sort FIELD] [--desc] [--format table|csv|json]")
	ticker := fs.String("ticker", "", "Case-insensitive ticker substring")
	sortBy := fs.String("sort", ports.SortByEntryDate, "Sort by entry_date, exit_date, ticker, profit_loss or volume")
	desc := fs.Bool("desc", false, "Sort descending")
	limit := fs.Int("limit", 0, "Maximum number of trades (0 for all)")
	format := fs.String("format", formatTable, "Output format: table, csv or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	trades, err := svc.ListTrades(ctx, ports.ListFilter{Ticker: *ticker, SortBy: *sortBy, Desc: *desc, Limit: *limit})
	if err != nil {
		return err
	}

	switch *format {
	case formatTable:
		printTradeTable(os.Stdout, trades)
		return nil
	case formatCSV:
		return utils.WriteTradesCSV(os.Stdout, trades)
	case formatJSON:
		return writeJSON(os.Stdout, trades)
	default:
		return fmt.Errorf("unknown format %q: %w", *format, ports.ErrInvalidRequest)
	}
}

func runStats(ctx context.Context, svc *app.JournalService, args []string) error {
	fs := newFlagSet("stats", "[--format table|json|yaml]")
	format := fs.String("format", formatTable, "Output format: table, json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}

	switch *format {
	case formatTable:
		printSummary(os.Stdout, stats)
		return nil
	case formatJSON:
		return writeJSON(os.Stdout, stats)
	case formatYAML:
		return writeYAML(os.Stdout, stats)
	default:
		return fmt.Errorf("unknown format %q: %w", *format, ports.ErrInvalidRequest)
	}
}

func runImport(ctx context.Context, svc *app.JournalService, args []string) error {
	fs := newFlagSet("import", "--file transactions.json")
	file := fs.String("file", "", "Brokerage transaction dump (JSON)")
	fs.StringVar(file, "f", "", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required: %w", ports.ErrInvalidRequest)
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	export, err := importer.ParseExport(f)
	if err != nil {
		return err
	}

	res, err := svc.ImportTransactions(ctx, export.Transactions, func(done, total int, percent float64) {
		fmt.Fprintf(os.Stderr, "\rImporting %d/%d (%.0f%%)", done, total, percent)
	})
	if res != nil {
		fmt.Fprintln(os.Stderr)
		printImportResult(os.Stdout, res)
	}
	return err
}

func runChart(ctx context.Context, svc *app.JournalService, args []string) error {
	fs := newFlagSet("chart", "--ticker SYM [--start D] [--end D] | --id ID")
	id := fs.Int64("id", 0, "Chart the holding period of this trade")
	ticker := fs.String("ticker", "", "Ticker symbol")
	startStr := fs.String("start", "", "Start date (default 30 days before end)")
	endStr := fs.String("end", "", "End date (default today)")
	format := fs.String("format", formatTable, "Output format: table or csv")
	sma := fs.Int("sma", 0, "Add a simple moving average of N closes (table only)")
	ema := fs.Int("ema", 0, "Add an exponential moving average of N closes (table only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	end := time.Now()
	var start time.Time
	if *id > 0 {
		t, err := svc.GetTrade(ctx, *id)
		if err != nil {
			return err
		}
		*ticker = t.Ticker
		start = t.EntryDate.AddDate(0, 0, -1)
		if t.ExitDate != nil {
			end = t.ExitDate.AddDate(0, 0, 1)
		}
	}
	if *endStr != "" {
		var err error
		if end, err = parseDate(*endStr); err != nil {
			return fmt.Errorf("--end: %w", err)
		}
	}
	if *startStr != "" {
		var err error
		if start, err = parseDate(*startStr); err != nil {
			return fmt.Errorf("--start: %w", err)
		}
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}
	if *ticker == "" {
		return fmt.Errorf("--ticker or --id is required: %w", ports.ErrInvalidRequest)
	}

	bars, err := svc.PriceHistory(ctx, *ticker, start, end)
	if err != nil {
		return err
	}
	if *format == formatCSV {
		return utils.WritePriceBarsCSV(os.Stdout, bars)
	}

	var overlays []overlay
	for _, ma := range []struct {
		typ    indicators.MovingAverageType
		period int
	}{{indicators.SimpleMovingAverage, *sma}, {indicators.ExponentialMovingAverage, *ema}} {
		if ma.period == 0 {
			continue
		}
		ind, err := indicators.NewMovingAverage(ma.typ, ma.period)
		if err != nil {
			return fmt.Errorf("%v: %w", err, ports.ErrInvalidRequest)
		}
		overlays = append(overlays, overlay{name: ind.Name(), values: ind.Series(bars)})
	}
	printBars(os.Stdout, bars, overlays...)
	return nil
}

func runExport(ctx context.Context, svc *app.JournalService, args []string) error {
	fs := newFlagSet("export", "[--out trades.csv]")
	out := fs.String("out", "trades.csv", "Output file (- for stdout)")
	fs.StringVar(out, "o", "trades.csv", "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	trades, err := svc.ListTrades(ctx, ports.ListFilter{})
	if err != nil {
		return err
	}

	if *out == "-" {
		return utils.WriteTradesCSV(os.Stdout, trades)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	if err := utils.WriteTradesCSV(f, trades); err != nil {
		return err
	}
	fmt.Printf("%d trades written to %s\n", len(trades), *out)
	return nil
}

// parseDate accepts yyyy-mm-dd (local midnight) or RFC3339.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use yyyy-mm-dd or RFC3339): %w", s, ports.ErrInvalidRequest)
	}
	return t, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, ports.ErrInvalidRequest)
	}
	return &v, nil
}

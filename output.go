package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"tradingJournal/internal/analytics"
	"tradingJournal/internal/app"
	"tradingJournal/internal/domain"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const na = "-"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func formatPL(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+$%.2f", v)
	}
	return fmt.Sprintf("-$%.2f", -v)
}

func optPL(v *float64) string {
	if v == nil {
		return na
	}
	return formatPL(*v)
}

func optPrice(v *float64) string {
	if v == nil {
		return na
	}
	return fmt.Sprintf("%.2f", *v)
}

func optRatio(v *float64) string {
	if v == nil {
		return na
	}
	return fmt.Sprintf("%.2f", *v)
}

func optPercent(v *float64) string {
	if v == nil {
		return na
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func optDays(v *float64) string {
	if v == nil {
		return na
	}
	return fmt.Sprintf("%.1f", *v)
}

func optDate(v *time.Time) string {
	if v == nil {
		return na
	}
	return v.Format(dateLayout)
}

func printTrade(w io.Writer, t *domain.Trade) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	m := t.Metrics

	fmt.Fprintf(tw, "ID\t%d\n", t.ID)
	fmt.Fprintf(tw, "Ticker\t%s\n", t.Ticker)
	fmt.Fprintf(tw, "Direction\t%s\n", t.Direction)
	fmt.Fprintf(tw, "Status\t%s\n", t.Status())
	fmt.Fprintf(tw, "Volume\t%d\n", t.Volume)
	fmt.Fprintf(tw, "Entry\t%.2f on %s\n", t.EntryPrice, t.EntryDate.Format(dateLayout))
	fmt.Fprintf(tw, "Stop loss\t%s\n", optPrice(t.StopLoss))
	fmt.Fprintf(tw, "Target\t%s\n", optPrice(t.TargetPrice))
	fmt.Fprintf(tw, "Exit\t%s on %s\n", optPrice(t.ExitPrice), optDate(t.ExitDate))
	fmt.Fprintf(tw, "Capital invested\t$%.2f\n", m.CapitalInvested)
	fmt.Fprintf(tw, "Risk\t%s\n", optPL(m.RiskDollars))
	fmt.Fprintf(tw, "Target P/L\t%s\n", optPL(m.TargetProfitLoss))
	fmt.Fprintf(tw, "Profit factor\t%s\n", optRatio(m.ProfitFactor))
	fmt.Fprintf(tw, "P/L\t%s\n", optPL(m.ProfitLoss))
	fmt.Fprintf(tw, "Days held\t%s\n", optDays(m.DaysHeld))
	fmt.Fprintf(tw, "Risk/reward\t%s\n", optRatio(m.RiskReward))
	fmt.Fprintf(tw, "Cumulative equity\t%s\n", optPL(t.CumulativeEquity))
	tw.Flush()
}

func printTradeTable(w io.Writer, trades []*domain.Trade) {
	if len(trades) == 0 {
		fmt.Fprintln(w, "No trades found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tTICKER\tDIR\tVOL\tENTRY\tENTRY DATE\tSTOP\tTARGET\tEXIT\tEXIT DATE\tP/L\tR:R\tEQUITY\n")
	fmt.Fprintf(tw, "──\t──────\t───\t───\t─────\t──────────\t────\t──────\t────\t─────────\t───\t───\t──────\n")

	for _, t := range trades {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.2f\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Ticker,
			t.Direction,
			t.Volume,
			t.EntryPrice,
			t.EntryDate.Format(dateLayout),
			optPrice(t.StopLoss),
			optPrice(t.TargetPrice),
			optPrice(t.ExitPrice),
			optDate(t.ExitDate),
			optPL(t.Metrics.ProfitLoss),
			optRatio(t.Metrics.RiskReward),
			optPL(t.CumulativeEquity),
		)
	}
	tw.Flush()
}

func printSummary(w io.Writer, s *analytics.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Trades\t%d (%d open, %d closed)\n", s.TotalTrades, s.OpenTrades, s.ClosedTrades)
	fmt.Fprintf(tw, "Winners / losers\t%d / %d (%d breakeven)\n", s.WinningTrades, s.LosingTrades, s.BreakevenTrades)
	fmt.Fprintf(tw, "Win rate\t%s\n", optPercent(s.WinRate))
	fmt.Fprintf(tw, "Total P/L\t%s\n", formatPL(s.TotalProfitLoss))
	fmt.Fprintf(tw, "Average P/L\t%s\n", optPL(s.AverageProfitLoss))
	fmt.Fprintf(tw, "Average win / loss\t%s / %s\n", formatPL(s.AverageWin), formatPL(s.AverageLoss))
	fmt.Fprintf(tw, "Profit factor\t%s\n", optRatio(s.ProfitFactor))
	fmt.Fprintf(tw, "Average risk/reward\t%s\n", optRatio(s.AverageRiskReward))
	fmt.Fprintf(tw, "Average holding (days)\t%s\n", optDays(s.AverageHoldingPeriod))
	fmt.Fprintf(tw, "Max drawdown\t$%.2f\n", s.MaxDrawdown)
	if s.BestTrade != nil {
		fmt.Fprintf(tw, "Best trade\t#%d %s %s\n", s.BestTrade.ID, s.BestTrade.Ticker, optPL(s.BestTrade.Metrics.ProfitLoss))
	}
	if s.WorstTrade != nil {
		fmt.Fprintf(tw, "Worst trade\t#%d %s %s\n", s.WorstTrade.ID, s.WorstTrade.Ticker, optPL(s.WorstTrade.Metrics.ProfitLoss))
	}
	fmt.Fprintf(tw, "Direction\t%d buy / %d short\n", s.DirectionDistribution.Buy, s.DirectionDistribution.Short)
	fmt.Fprintf(tw, "Holding\t%d intraday / %d overnight\n", s.HoldingDistribution.Intraday, s.HoldingDistribution.Overnight)

	if len(s.TickerDistribution) > 0 {
		parts := make([]string, 0, len(s.TickerDistribution))
		for _, tc := range s.TickerDistribution {
			parts = append(parts, fmt.Sprintf("%s(%d)", tc.Ticker, tc.Count))
		}
		fmt.Fprintf(tw, "Top tickers\t%s\n", strings.Join(parts, " "))
	}
	tw.Flush()

	if len(s.MonthlyPerformance) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "MONTH\tP/L\n")
		fmt.Fprintf(tw, "─────\t───\n")
		for _, mr := range s.MonthlyPerformance {
			fmt.Fprintf(tw, "%s\t%s\n", mr.Month, formatPL(mr.ProfitLoss))
		}
		tw.Flush()
	}
}

func printImportResult(w io.Writer, res *app.ImportResult) {
	fmt.Fprintf(w, "%d imported, %d failed, %d skipped (batch %s)\n", res.Succeeded, res.Failed, res.Skipped, res.BatchID)
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  #%d %s: %v\n", f.Index+1, f.Symbol, f.Err)
	}
}

// overlay is an extra per-bar column such as a moving average.
type overlay struct {
	name   string
	values []*float64
}

func printBars(w io.Writer, bars []*domain.PriceBar, overlays ...overlay) {
	if len(bars) == 0 {
		fmt.Fprintln(w, "No price data.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "DATE\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME"
	rule := "────\t────\t────\t───\t─────\t──────"
	for _, o := range overlays {
		header += "\t" + o.name
		rule += "\t" + strings.Repeat("─", len(o.name))
	}
	fmt.Fprintln(tw, header)
	fmt.Fprintln(tw, rule)

	for i, b := range bars {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.0f",
			b.Time.Format(dateLayout), b.Open, b.High, b.Low, b.Close, b.Volume)
		for _, o := range overlays {
			fmt.Fprintf(tw, "\t%s", optPrice(o.values[i]))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

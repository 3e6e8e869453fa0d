package utils

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"tradingJournal/internal/domain"
)

var tradeHeader = []string{
	"id", "ticker", "direction", "volume", "entry_price", "entry_date", "stop_loss", "target_price",
	"exit_date", "exit_price", "capital_invested", "risk_dollars", "target_profit_loss", "profit_factor",
	"profit_loss", "days_held", "risk_reward", "cumulative_equity",
}

// WriteTradesCSV writes one row per trade. Values that are not available are
// left empty.
func WriteTradesCSV(w io.Writer, trades []*domain.Trade) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		m := t.Metrics
		if err := writer.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.Ticker,
			string(t.Direction),
			strconv.Itoa(t.Volume),
			formatFloat(t.EntryPrice),
			t.EntryDate.Format(time.RFC3339),
			formatOptional(t.StopLoss),
			formatOptional(t.TargetPrice),
			formatTime(t.ExitDate),
			formatOptional(t.ExitPrice),
			formatFloat(m.CapitalInvested),
			formatOptional(m.RiskDollars),
			formatOptional(m.TargetProfitLoss),
			formatOptional(m.ProfitFactor),
			formatOptional(m.ProfitLoss),
			formatOptional(m.DaysHeld),
			formatOptional(m.RiskReward),
			formatOptional(t.CumulativeEquity),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WritePriceBarsCSV writes daily bars as time,ticker,open,high,low,close,volume.
func WritePriceBarsCSV(w io.Writer, bars []*domain.PriceBar) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"time", "ticker", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		if err := writer.Write([]string{
			b.Time.Format(time.RFC3339),
			b.Ticker,
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}

package main

import (
	"bytes"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingJournal/internal/analytics"
	"tradingJournal/internal/app"
	"tradingJournal/internal/domain"
	"tradingJournal/internal/importer"
	"tradingJournal/internal/ports"
)

func TestParseDate(t *testing.T) {
	got, err := parseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local), got)

	got, err = parseDate("2024-03-15T14:30:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)))

	_, err = parseDate("15/03/2024")
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestTradeFlagsApplyOnlySetFlags(t *testing.T) {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	var tf tradeFlags
	tf.register(fs)
	require.NoError(t, fs.Parse([]string{"--direction", "short", "--stop-loss", "", "--exit-price", "12.5", "--exit-date", "2024-01-03"}))

	trade := &domain.Trade{
		Ticker:     "AAPL",
		Direction:  domain.Buy,
		Volume:     10,
		EntryPrice: 10,
		StopLoss:   domain.Float(9),
	}
	require.NoError(t, tf.apply(fs, trade))

	assert.Equal(t, "AAPL", trade.Ticker)
	assert.Equal(t, 10, trade.Volume)
	assert.Equal(t, domain.Short, trade.Direction)
	assert.Nil(t, trade.StopLoss)
	require.NotNil(t, trade.ExitPrice)
	assert.Equal(t, 12.5, *trade.ExitPrice)
	require.NotNil(t, trade.ExitDate)
	assert.Equal(t, "2024-01-03", trade.ExitDate.Format(dateLayout))
}

func TestTradeFlagsApplyReportsErrors(t *testing.T) {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	var tf tradeFlags
	tf.register(fs)
	require.NoError(t, fs.Parse([]string{"--direction", "sideways", "--target", "abc"}))

	err := tf.apply(fs, &domain.Trade{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--direction")
	assert.Contains(t, err.Error(), "--target")
}

func TestPrintTradeTable(t *testing.T) {
	var buf bytes.Buffer
	printTradeTable(&buf, nil)
	assert.Equal(t, "No trades found.\n", buf.String())

	trade := &domain.Trade{ID: 3, Ticker: "AAPL", Direction: domain.Buy, Volume: 10, EntryPrice: 100,
		EntryDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	trade.Close(110, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	trade.Metrics.ProfitLoss = domain.Float(100)

	buf.Reset()
	printTradeTable(&buf, []*domain.Trade{trade})
	out := buf.String()
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "+$100.00")
	assert.Contains(t, out, "2024-01-05")
}

func TestPrintSummaryAndYAML(t *testing.T) {
	s := analytics.Summarize(nil, analytics.Options{})

	var buf bytes.Buffer
	printSummary(&buf, s)
	assert.Contains(t, buf.String(), "Win rate")
	assert.Contains(t, buf.String(), "Trades")

	buf.Reset()
	require.NoError(t, writeYAML(&buf, s))
	assert.Contains(t, buf.String(), "total_trades: 0")
	assert.Contains(t, buf.String(), "win_rate: null")

	buf.Reset()
	require.NoError(t, writeJSON(&buf, s))
	assert.Contains(t, buf.String(), `"monthly_performance": []`)
}

func TestPrintImportResult(t *testing.T) {
	var buf bytes.Buffer
	printImportResult(&buf, &app.ImportResult{
		BatchID:   "b1",
		Succeeded: 4,
		Failed:    1,
		Skipped:   2,
		Failures:  []importer.ItemFailure{{Index: 1, Symbol: "MSFT", Err: importer.ErrMalformedRecord}},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "4 imported, 1 failed, 2 skipped (batch b1)", lines[0])
	assert.Contains(t, lines[1], "#2 MSFT")
}

func TestPrintBarsWithOverlay(t *testing.T) {
	bars := []*domain.PriceBar{
		{Ticker: "AAPL", Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{Ticker: "AAPL", Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 1.5, High: 3, Low: 1, Close: 2.5, Volume: 200},
	}

	var buf bytes.Buffer
	printBars(&buf, bars, overlay{name: "SMA(2)", values: []*float64{nil, domain.Float(2)}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "SMA(2)")
	assert.True(t, strings.HasSuffix(lines[2], "-"))
	assert.True(t, strings.HasSuffix(lines[3], "2.00"))

	buf.Reset()
	printBars(&buf, nil)
	assert.Equal(t, "No price data.\n", buf.String())
}

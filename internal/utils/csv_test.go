package utils

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingJournal/internal/domain"
)

func TestWriteTradesCSV(t *testing.T) {
	entry := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	closed := &domain.Trade{
		ID: 1, Ticker: "AAPL", Direction: domain.Buy, Volume: 10, EntryPrice: 100.5, EntryDate: entry,
		StopLoss: domain.Float(95),
		Metrics:  domain.Metrics{CapitalInvested: 1005, ProfitLoss: domain.Float(-12.5)},
	}
	closed.Close(99.25, entry.Add(24*time.Hour))
	open := &domain.Trade{ID: 2, Ticker: "MSFT", Direction: domain.Short, Volume: 1, EntryPrice: 400, EntryDate: entry}

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, []*domain.Trade{closed, open}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, tradeHeader, rows[0])

	assert.Equal(t, "AAPL", rows[1][1])
	assert.Equal(t, "100.5", rows[1][4])
	assert.Equal(t, "2024-01-02T00:00:00Z", rows[1][5])
	assert.Equal(t, "95", rows[1][6])
	assert.Equal(t, "", rows[1][7])
	assert.Equal(t, "2024-01-03T00:00:00Z", rows[1][8])
	assert.Equal(t, "-12.5", rows[1][14])

	assert.Equal(t, "Short", rows[2][2])
	assert.Equal(t, "", rows[2][8])
	assert.Equal(t, "", rows[2][14])
}

func TestWritePriceBarsCSV(t *testing.T) {
	bars := []*domain.PriceBar{{
		Ticker: "AAPL", Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open: 187.15, High: 188.44, Low: 183.89, Close: 185.64, Volume: 82488700,
	}}

	var buf bytes.Buffer
	require.NoError(t, WritePriceBarsCSV(&buf, bars))
	assert.Equal(t, "time,ticker,open,high,low,close,volume\n2024-01-02T00:00:00Z,AAPL,187.15,188.44,183.89,185.64,82488700\n", buf.String())
}

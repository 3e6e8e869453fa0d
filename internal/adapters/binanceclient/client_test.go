package binanceclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradingJournal/internal/ports"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

var _ ports.PriceHistoryProvider = (*Client)(nil)

func newTestClient(t *testing.T, status int, body string, gotSymbol *string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotSymbol != nil {
			*gotSymbol = r.URL.Query().Get("symbol")
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Logger: &mockLogger{}})
	require.NoError(t, err)
	return c
}

func TestGetPriceHistory(t *testing.T) {
	body := `[
		[1704153600000,"42283.50","45000.00","42000.10","44950.20","1200.5",1704239999999,"0",10,"0","0","0"],
		[1704240000000,"44950.20","45500.00","44100.00","44200.00","900.25",1704326399999,"0",10,"0","0","0"]
	]`
	var symbol string
	c := newTestClient(t, http.StatusOK, body, &symbol)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars, err := c.GetPriceHistory(context.Background(), "btcusdt", start, start.AddDate(0, 0, 2))
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", symbol)
	require.Len(t, bars, 2)
	assert.Equal(t, "BTCUSDT", bars[0].Ticker)
	assert.True(t, bars[0].Time.Equal(start))
	assert.Equal(t, 42283.50, bars[0].Open)
	assert.Equal(t, 44950.20, bars[0].Close)
	assert.Equal(t, 900.25, bars[1].Volume)
}

func TestGetPriceHistoryEmpty(t *testing.T) {
	c := newTestClient(t, http.StatusOK, `[]`, nil)
	_, err := c.GetPriceHistory(context.Background(), "BTCUSDT", time.Now().AddDate(0, 0, -3), time.Now())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestGetPriceHistoryAPIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"code":-1003,"msg":"Too many requests"}`, ports.ErrRateLimited},
		{"invalid symbol", http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`, ports.ErrNotFound},
		{"bad parameter", http.StatusBadRequest, `{"code":-1100,"msg":"Illegal characters"}`, ports.ErrInvalidRequest},
		{"invalid interval", http.StatusBadRequest, `{"code":-1120,"msg":"Invalid interval."}`, ports.ErrInvalidRequest},
		{"backend timeout", http.StatusServiceUnavailable, `{"code":-1007,"msg":"Timeout waiting for response from backend server."}`, ports.ErrTimeout},
		{"disconnected", http.StatusInternalServerError, `{"code":-1001,"msg":"Internal error; unable to process your request."}`, ports.ErrSourceUnavailable},
		{"account error is not a klines error", http.StatusUnauthorized, `{"code":-2015,"msg":"Invalid API-key, IP, or permissions for action."}`, ports.ErrUnknown},
		{"unmapped", http.StatusBadRequest, `{"code":-9999,"msg":"?"}`, ports.ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.status, tt.body, nil)
			_, err := c.GetPriceHistory(context.Background(), "BTCUSDT", time.Now().AddDate(0, 0, -3), time.Now())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTranslateBinanceKline(t *testing.T) {
	_, err := translateBinanceKline(nil, "BTCUSDT")
	assert.Error(t, err)

	_, err = translateBinanceKline(&futures.Kline{Open: "x"}, "BTCUSDT")
	assert.Error(t, err)

	bar, err := translateBinanceKline(&futures.Kline{
		OpenTime: 1704153600000, Open: "1", High: "2", Low: "0.5", Close: "1.5", Volume: "10",
	}, "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", bar.Ticker)
	assert.Equal(t, 1.5, bar.Close)
}

func TestNewRequiresLogger(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

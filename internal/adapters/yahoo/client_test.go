package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingJournal/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

var _ ports.PriceHistoryProvider = (*Client)(nil)

const chartBody = `{"chart":{"result":[{
	"timestamp":[1704205800,1704292200,1704378600],
	"indicators":{"quote":[{
		"open":[187.15,184.22,null],
		"high":[188.44,185.88,null],
		"low":[183.89,183.43,null],
		"close":[185.64,184.25,null],
		"volume":[82488700,58414500,null]
	}]}
}],"error":null}}`

func newTestClient(t *testing.T, handler http.HandlerFunc, ttl time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, CacheTTL: ttl, Logger: &mockLogger{}})
	require.NoError(t, err)
	return c
}

func TestGetPriceHistory(t *testing.T) {
	var gotPath, gotInterval, gotPeriod1 string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		gotPeriod1 = r.URL.Query().Get("period1")
		w.Write([]byte(chartBody))
	}, 0)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	bars, err := c.GetPriceHistory(context.Background(), "aapl", start, end)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Equal(t, "1d", gotInterval)
	assert.Equal(t, "1704153600", gotPeriod1)

	require.Len(t, bars, 2)
	assert.Equal(t, "AAPL", bars[0].Ticker)
	assert.Equal(t, 185.64, bars[0].Close)
	assert.Equal(t, 188.44, bars[0].High)
	assert.Equal(t, 58414500.0, bars[1].Volume)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
}

func TestGetPriceHistoryCaches(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(chartBody))
	}, time.Minute)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)
	for i := 0; i < 3; i++ {
		_, err := c.GetPriceHistory(context.Background(), "AAPL", start, end)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// expired entries are fetched again
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err := c.GetPriceHistory(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetPriceHistoryErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, ports.ErrNotFound},
		{"chart error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, ports.ErrNotFound},
		{"unknown symbol", http.StatusNotFound, `{}`, ports.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ``, ports.ErrRateLimited},
		{"server down", http.StatusBadGateway, ``, ports.ErrSourceUnavailable},
		{"bad json", http.StatusOK, `{"chart":`, ports.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, 0)
			_, err := c.GetPriceHistory(context.Background(), "AAPL", time.Now().AddDate(0, 0, -5), time.Now())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetPriceHistoryCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBody))
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetPriceHistory(ctx, "AAPL", time.Now().AddDate(0, 0, -5), time.Now())
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}

func TestNewClientRequiresLogger(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"tradingJournal/internal/domain"
	"tradingJournal/internal/ports"
)

const (
	defaultBaseURL = "https://query2.finance.yahoo.com"
	dailyInterval  = "1d"
	userAgent      = "trading-journal/1.0"
)

// Client fetches daily price history from the Yahoo Finance v8 chart
// endpoint. Responses are cached per (ticker, start, end) for the TTL.
type Client struct {
	cli     *http.Client
	baseURL string
	ttl     time.Duration
	logger  ports.Logger
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedHistory
}

type cachedHistory struct {
	bars    []*domain.PriceBar
	fetched time.Time
}

// Config holds configuration for the Yahoo client.
type Config struct {
	BaseURL  string        // Defaults to the public endpoint
	Timeout  time.Duration // HTTP timeout; 0 means 10s
	CacheTTL time.Duration // 0 disables caching
	Logger   ports.Logger
}

// NewClient creates a new Yahoo price history client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for yahoo client: %w", ports.ErrConfigurationError)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cli:     &http.Client{Timeout: timeout},
		baseURL: baseURL,
		ttl:     cfg.CacheTTL,
		logger:  cfg.Logger,
		now:     time.Now,
		cache:   make(map[string]cachedHistory),
	}, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetPriceHistory returns daily bars for ticker between start and end.
func (c *Client) GetPriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]*domain.PriceBar, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required: %w", ports.ErrInvalidRequest)
	}
	key := fmt.Sprintf("%s|%d|%d", ticker, start.Unix(), end.Unix())

	if c.ttl > 0 {
		c.mu.RLock()
		if h, ok := c.cache[key]; ok && c.now().Sub(h.fetched) < c.ttl {
			c.mu.RUnlock()
			c.logger.Debug(ctx, "Price history served from cache", map[string]interface{}{"ticker": ticker})
			return h.bars, nil
		}
		c.mu.RUnlock()
	}

	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", dailyInterval)
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build yahoo request: %v: %w", err, ports.ErrInvalidRequest)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, c.handleError(ctx, err, ticker)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("yahoo has no chart for %s: %w", ticker, ports.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("yahoo http %d: %w", resp.StatusCode, ports.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("yahoo http %d: %w", resp.StatusCode, ports.ErrSourceUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("yahoo http %d: %w", resp.StatusCode, ports.ErrUnknown)
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode yahoo chart for %s: %v: %w", ticker, err, ports.ErrUnknown)
	}
	if raw.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error %s: %s: %w", raw.Chart.Error.Code, raw.Chart.Error.Description, ports.ErrNotFound)
	}

	bars := translateChart(ticker, &raw)
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price history for %s: %w", ticker, ports.ErrNotFound)
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.cache[key] = cachedHistory{bars: bars, fetched: c.now()}
		c.mu.Unlock()
	}
	c.logger.Debug(ctx, "Price history fetched", map[string]interface{}{"ticker": ticker, "bars": len(bars)})
	return bars, nil
}

// translateChart converts the first chart result into bars, skipping days
// without a close.
func translateChart(ticker string, raw *chartResponse) []*domain.PriceBar {
	if len(raw.Chart.Result) == 0 || len(raw.Chart.Result[0].Indicators.Quote) == 0 {
		return nil
	}
	r := raw.Chart.Result[0]
	quote := r.Indicators.Quote[0]

	bars := make([]*domain.PriceBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePrice := at(quote.Close, i)
		if closePrice == nil {
			continue
		}
		bar := &domain.PriceBar{
			Ticker: ticker,
			Time:   time.Unix(ts, 0).UTC(),
			Close:  *closePrice,
		}
		if v := at(quote.Open, i); v != nil {
			bar.Open = *v
		}
		if v := at(quote.High, i); v != nil {
			bar.High = *v
		}
		if v := at(quote.Low, i); v != nil {
			bar.Low = *v
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = *v
		}
		bars = append(bars, bar)
	}
	return bars
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func (c *Client) handleError(ctx context.Context, err error, ticker string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("yahoo request for %s timed out: %w", ticker, ports.ErrTimeout)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("yahoo request for %s canceled: %w", ticker, ports.ErrContextCanceled)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return fmt.Errorf("yahoo request for %s timed out: %w", ticker, ports.ErrTimeout)
	}
	c.logger.Warn(ctx, "Yahoo request failed", map[string]interface{}{"ticker": ticker, "error": err.Error()})
	return fmt.Errorf("yahoo request for %s: %v: %w", ticker, err, ports.ErrConnectionFailed)
}

package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tradingJournal/internal/domain"
	"tradingJournal/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	baseURLProduction = "https://fapi.binance.com"
	dailyInterval     = "1d"
	maxKlinesLimit    = 1500
)

// Client implements the ports.PriceHistoryProvider interface on Binance USDⓈ-M
// futures klines. Tickers are Binance symbols such as BTCUSDT.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey    string
	SecretKey string
	BaseURL   string // Defaults to production
	Logger    ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client: %w", ports.ErrConfigurationError)
	}

	// klines are public; keys are optional
	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	client.BaseURL = baseURLProduction
	if cfg.BaseURL != "" {
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	cfg.Logger.Debug(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL})

	return &Client{
		futuresClient: client,
		logger:        cfg.Logger,
	}, nil
}

// klineErrors maps the API error codes a public klines request can return.
// Anything else becomes ports.ErrUnknown.
var klineErrors = map[int64]error{
	-1001: ports.ErrSourceUnavailable, // internal disconnect
	-1003: ports.ErrRateLimited,       // too many requests
	-1007: ports.ErrTimeout,           // backend did not answer in time
	-1100: ports.ErrInvalidRequest,    // illegal characters in a parameter
	-1120: ports.ErrInvalidRequest,    // invalid interval
	-1121: ports.ErrNotFound,          // invalid symbol
	-1130: ports.ErrInvalidRequest,    // invalid data sent for a parameter
}

// handleError logs a failed klines request and wraps it onto a ports error.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation}
	mapped := ports.ErrUnknown

	var apiErr *common.APIError
	switch {
	case errors.As(err, &apiErr):
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message
		if known, ok := klineErrors[apiErr.Code]; ok {
			mapped = known
		}
	case errors.Is(err, context.DeadlineExceeded):
		mapped = ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		mapped = ports.ErrContextCanceled
	case isNetworkError(err):
		mapped = ports.ErrConnectionFailed
	}

	c.logger.Error(ctx, err, "Binance klines request failed", fields)
	return fmt.Errorf("%s failed: %w: %w", operation, mapped, err)
}

func isNetworkError(err error) bool {
	msg := err.Error()
	for _, s := range []string{"connection refused", "connection reset by peer", "no such host"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// GetPriceHistory fetches all daily klines for symbol between start and end,
// paging through the 1500-bar limit.
func (c *Client) GetPriceHistory(ctx context.Context, symbol string, start, end time.Time) ([]*domain.PriceBar, error) {
	op := "GetPriceHistory"
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%s failed: symbol is required: %w", op, ports.ErrInvalidRequest)
	}

	var bars []*domain.PriceBar
	from := start
	for {
		klines, err := c.futuresClient.NewKlinesService().
			Symbol(symbol).
			Interval(dailyInterval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxKlinesLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			bar, err := translateBinanceKline(bk, symbol)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate kline: %w", err), op)
			}
			bars = append(bars, bar)
		}
		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime + 1)
		if from.After(end) || len(klines) < maxKlinesLimit {
			break
		}
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no klines for %s between %s and %s: %w",
			symbol, start.Format(time.DateOnly), end.Format(time.DateOnly), ports.ErrNotFound)
	}
	c.logger.Debug(ctx, "Klines fetched", map[string]interface{}{"symbol": symbol, "bars": len(bars)})
	return bars, nil
}

func translateBinanceKline(bk *futures.Kline, symbol string) (*domain.PriceBar, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return &domain.PriceBar{
		Ticker: symbol,
		Time:   time.UnixMilli(bk.OpenTime).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  cls,
		Volume: vol,
	}, nil
}

package ports

import (
	"context"
	"time"

	"tradingJournal/internal/domain"
)

// PriceHistoryProvider defines the interface for looking up historical daily
// prices of a ticker, used to chart a trade between its entry and exit.
type PriceHistoryProvider interface {
	// GetPriceHistory returns daily bars for ticker between start and end,
	// ordered by time ascending. Returns ErrNotFound if no data is available.
	GetPriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]*domain.PriceBar, error)
}

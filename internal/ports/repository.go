package ports

import (
	"context"

	"tradingJournal/internal/domain"
)

// Sort keys accepted by ListFilter.SortBy.
const (
	SortByEntryDate  = "entry_date"
	SortByExitDate   = "exit_date"
	SortByTicker     = "ticker"
	SortByProfitLoss = "profit_loss"
	SortByVolume     = "volume"
)

// ListFilter narrows and orders the trades returned by TradeRepository.FindAll.
type ListFilter struct {
	Ticker string // Case-insensitive substring match on the ticker; empty matches all
	SortBy string // One of the SortBy* keys; empty means entry date
	Desc   bool   // Descending order when true
	Limit  int    // Maximum number of rows; 0 means no limit
}

// TradeRepository defines the interface for storing and retrieving journaled trades.
type TradeRepository interface {
	// Create saves a new trade and returns its assigned ID.
	Create(ctx context.Context, trade *domain.Trade) (int64, error)
	// Update modifies an existing trade.
	Update(ctx context.Context, trade *domain.Trade) error
	// Delete removes a trade by its ID.
	Delete(ctx context.Context, id int64) error
	// FindByID retrieves a trade by its unique ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, id int64) (*domain.Trade, error)
	// FindAll retrieves the trades matching the filter.
	FindAll(ctx context.Context, filter ListFilter) ([]*domain.Trade, error)
	// UpdateCumulativeEquity stores the cached running equity per trade ID.
	// A nil value clears the cached equity.
	UpdateCumulativeEquity(ctx context.Context, equity map[int64]*float64) error
}

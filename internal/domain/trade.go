package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTrade is returned when a trade fails validation.
var ErrInvalidTrade = errors.New("invalid trade")

// Trade represents a single journaled stock position.
type Trade struct {
	ID          int64      `json:"id" yaml:"id"`                                       // Unique identifier (assigned by the store)
	Ticker      string     `json:"ticker" yaml:"ticker"`                               // Symbol, e.g. "AAPL"
	Direction   Direction  `json:"direction" yaml:"direction"`                         // Buy or Short
	Volume      int        `json:"volume" yaml:"volume"`                               // Number of shares
	EntryPrice  float64    `json:"entry_price" yaml:"entry_price"`                     // Price at which the position was entered
	EntryDate   time.Time  `json:"entry_date" yaml:"entry_date"`                       // Timestamp when the position was entered
	StopLoss    *float64   `json:"stop_loss,omitempty" yaml:"stop_loss,omitempty"`       // Planned stop-loss price (nil if not set)
	TargetPrice *float64   `json:"target_price,omitempty" yaml:"target_price,omitempty"` // Planned target price (nil if not set)
	ExitDate    *time.Time `json:"exit_date,omitempty" yaml:"exit_date,omitempty"`       // Timestamp when the position was exited (nil while open)
	ExitPrice   *float64   `json:"exit_price,omitempty" yaml:"exit_price,omitempty"`     // Price at which the position was exited (nil while open)

	// Cached derived values, recomputed on every write.
	Metrics          Metrics  `json:"metrics" yaml:"metrics"`
	CumulativeEquity *float64 `json:"cumulative_equity,omitempty" yaml:"cumulative_equity,omitempty"` // Running realized P/L up to this trade (closed trades only)

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Metrics holds the derived per-trade values. A nil pointer means the value
// is not available because an input it depends on is missing.
type Metrics struct {
	CapitalInvested  float64  `json:"capital_invested" yaml:"capital_invested"`
	RiskPerShare     *float64 `json:"risk_per_share" yaml:"risk_per_share"`
	RiskDollars      *float64 `json:"risk_dollars" yaml:"risk_dollars"`
	TargetProfitLoss *float64 `json:"target_profit_loss" yaml:"target_profit_loss"`
	ProfitFactor     *float64 `json:"profit_factor" yaml:"profit_factor"`
	ProfitPerShare   *float64 `json:"profit_per_share" yaml:"profit_per_share"`
	ProfitLoss       *float64 `json:"profit_loss" yaml:"profit_loss"`
	DaysHeld         *float64 `json:"days_held" yaml:"days_held"`
	RiskReward       *float64 `json:"risk_reward" yaml:"risk_reward"`
}

// IsOpen checks whether the trade has not been exited yet.
func (t *Trade) IsOpen() bool {
	return t.ExitDate == nil
}

// IsClosed checks whether the trade carries both an exit date and an exit price.
func (t *Trade) IsClosed() bool {
	return t.ExitDate != nil && t.ExitPrice != nil
}

// Status returns the lifecycle state of the trade.
func (t *Trade) Status() TradeStatus {
	if t.IsOpen() {
		return StatusOpen
	}
	return StatusClosed
}

// Close records the exit of the trade.
func (t *Trade) Close(exitPrice float64, exitDate time.Time) {
	t.ExitPrice = &exitPrice
	t.ExitDate = &exitDate
}

// Normalize trims and upper-cases the ticker.
func (t *Trade) Normalize() {
	t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))
}

// Validate checks the invariants every stored trade must satisfy.
func (t *Trade) Validate() error {
	var errs []string

	if strings.TrimSpace(t.Ticker) == "" {
		errs = append(errs, "ticker is required")
	}
	if !t.Direction.IsValid() {
		errs = append(errs, fmt.Sprintf("direction %q must be Buy or Short", t.Direction))
	}
	if t.Volume <= 0 {
		errs = append(errs, "volume must be positive")
	}
	if t.EntryPrice <= 0 {
		errs = append(errs, "entry price must be positive")
	}
	if t.EntryDate.IsZero() {
		errs = append(errs, "entry date is required")
	}
	if (t.ExitDate == nil) != (t.ExitPrice == nil) {
		errs = append(errs, "exit date and exit price must be set together")
	}
	if t.ExitPrice != nil && *t.ExitPrice <= 0 {
		errs = append(errs, "exit price must be positive")
	}
	if t.ExitDate != nil && !t.EntryDate.IsZero() && t.ExitDate.Before(t.EntryDate) {
		errs = append(errs, "exit date cannot be before entry date")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTrade, strings.Join(errs, "; "))
	}
	return nil
}

// Float returns a pointer to v. Handy for optional price fields.
func Float(v float64) *float64 {
	return &v
}

// Time returns a pointer to v.
func Time(v time.Time) *time.Time {
	return &v
}

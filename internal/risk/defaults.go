package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradingJournal/internal/domain"
)

// Standard percentages applied when a trade arrives without risk parameters.
const (
	DefaultStopLossPercent   = 0.05
	DefaultTakeProfitPercent = 0.10
)

// Defaults holds the stop-loss and take-profit distances, as fractions of the
// entry price, used to fill in trades that carry no plan of their own.
type Defaults struct {
	StopLossPercent   float64
	TakeProfitPercent float64
}

// NewDefaults returns the 5% stop / 10% target heuristic.
func NewDefaults() Defaults {
	return Defaults{
		StopLossPercent:   DefaultStopLossPercent,
		TakeProfitPercent: DefaultTakeProfitPercent,
	}
}

// Validate checks both percentages are within (0, 1).
func (d Defaults) Validate() error {
	if d.StopLossPercent <= 0 || d.StopLossPercent >= 1 {
		return fmt.Errorf("stop loss percent %v must be between 0 and 1 (exclusive)", d.StopLossPercent)
	}
	if d.TakeProfitPercent <= 0 || d.TakeProfitPercent >= 1 {
		return fmt.Errorf("take profit percent %v must be between 0 and 1 (exclusive)", d.TakeProfitPercent)
	}
	return nil
}

// StopLoss calculates the default stop price for a position entered at entry.
func (d Defaults) StopLoss(entry decimal.Decimal, dir domain.Direction) decimal.Decimal {
	pct := decimal.NewFromFloat(d.StopLossPercent)
	if dir == domain.Short {
		return entry.Mul(decimal.NewFromInt(1).Add(pct))
	}
	return entry.Mul(decimal.NewFromInt(1).Sub(pct))
}

// TakeProfit calculates the default target price for a position entered at entry.
func (d Defaults) TakeProfit(entry decimal.Decimal, dir domain.Direction) decimal.Decimal {
	pct := decimal.NewFromFloat(d.TakeProfitPercent)
	if dir == domain.Short {
		return entry.Mul(decimal.NewFromInt(1).Sub(pct))
	}
	return entry.Mul(decimal.NewFromInt(1).Add(pct))
}

// Apply fills in StopLoss and TargetPrice on t when they are missing.
// Existing values are left alone.
func (d Defaults) Apply(t *domain.Trade) {
	entry := decimal.NewFromFloat(t.EntryPrice)
	if t.StopLoss == nil {
		t.StopLoss = domain.Float(d.StopLoss(entry, t.Direction).InexactFloat64())
	}
	if t.TargetPrice == nil {
		t.TargetPrice = domain.Float(d.TakeProfit(entry, t.Direction).InexactFloat64())
	}
}

package metrics

import (
	"math"

	"tradingJournal/internal/domain"
)

const hoursPerDay = 24.0

// signedMove returns the per-share gain of moving from entry to price in the
// trade's favour: price-entry for Buy, entry-price for Short.
func signedMove(dir domain.Direction, entry, price float64) float64 {
	if dir == domain.Short {
		return entry - price
	}
	return price - entry
}

// RiskPerShare is the per-share distance between entry and stop loss.
// Returns nil when no stop loss is set.
func RiskPerShare(t *domain.Trade) *float64 {
	if t.StopLoss == nil {
		return nil
	}
	// risk is the adverse move down to (Buy) or up to (Short) the stop
	r := -signedMove(t.Direction, t.EntryPrice, *t.StopLoss)
	return &r
}

// RiskDollars is the dollar exposure between entry and stop loss.
func RiskDollars(t *domain.Trade) *float64 {
	perShare := RiskPerShare(t)
	if perShare == nil {
		return nil
	}
	r := *perShare * float64(t.Volume)
	return &r
}

// TargetProfitLoss is the P/L the trade would realize at its target price.
func TargetProfitLoss(t *domain.Trade) *float64 {
	if t.TargetPrice == nil {
		return nil
	}
	pl := signedMove(t.Direction, t.EntryPrice, *t.TargetPrice) * float64(t.Volume)
	return &pl
}

// ProfitFactor is the target P/L divided by the absolute dollar risk.
// Not available when either side is missing or the risk is zero.
func ProfitFactor(t *domain.Trade) *float64 {
	return ratio(TargetProfitLoss(t), RiskDollars(t), false)
}

// ProfitPerShare is the realized per-share gain. Nil until the trade is closed.
func ProfitPerShare(t *domain.Trade) *float64 {
	if !t.IsClosed() {
		return nil
	}
	p := signedMove(t.Direction, t.EntryPrice, *t.ExitPrice)
	return &p
}

// ProfitLoss is the realized P/L in dollars. Nil until the trade is closed.
func ProfitLoss(t *domain.Trade) *float64 {
	perShare := ProfitPerShare(t)
	if perShare == nil {
		return nil
	}
	pl := *perShare * float64(t.Volume)
	return &pl
}

// DaysHeld is the elapsed time between entry and exit in fractional days.
func DaysHeld(t *domain.Trade) *float64 {
	if !t.IsClosed() {
		return nil
	}
	d := t.ExitDate.Sub(t.EntryDate).Hours() / hoursPerDay
	return &d
}

// IsIntraday classifies a holding period shorter than one day.
func IsIntraday(daysHeld float64) bool {
	return daysHeld < 1
}

// RiskReward is the planned reward relative to the risk: |target P/L| over
// |risk dollars|. Without a target the realized P/L is used and keeps its
// sign, so a closed loser comes out negative.
func RiskReward(t *domain.Trade) *float64 {
	if rr := ratio(TargetProfitLoss(t), RiskDollars(t), true); rr != nil {
		return rr
	}
	return ratio(ProfitLoss(t), RiskDollars(t), false)
}

// CapitalInvested is the notional value of the position at entry.
func CapitalInvested(t *domain.Trade) float64 {
	return float64(t.Volume) * t.EntryPrice
}

// Calculate computes every derived metric for t.
func Calculate(t *domain.Trade) domain.Metrics {
	return domain.Metrics{
		CapitalInvested:  CapitalInvested(t),
		RiskPerShare:     RiskPerShare(t),
		RiskDollars:      RiskDollars(t),
		TargetProfitLoss: TargetProfitLoss(t),
		ProfitFactor:     ProfitFactor(t),
		ProfitPerShare:   ProfitPerShare(t),
		ProfitLoss:       ProfitLoss(t),
		DaysHeld:         DaysHeld(t),
		RiskReward:       RiskReward(t),
	}
}

// Apply recomputes and stores the derived metrics on t.
func Apply(t *domain.Trade) {
	t.Metrics = Calculate(t)
}

func ratio(num, risk *float64, absNum bool) *float64 {
	if num == nil || risk == nil || *risk == 0 {
		return nil
	}
	n := *num
	if absNum {
		n = math.Abs(n)
	}
	r := n / math.Abs(*risk)
	return &r
}

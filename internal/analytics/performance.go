package analytics

import (
	"sort"
	"time"

	"tradingJournal/internal/domain"
	"tradingJournal/internal/metrics"
)

// DefaultTopTickers is the number of tickers kept in the ticker distribution.
const DefaultTopTickers = 6

const monthLayout = "2006-01"

// Options tunes the aggregation.
type Options struct {
	TopTickers int // Size of the ticker distribution; <= 0 means DefaultTopTickers
}

// Summary holds the dashboard statistics for a collection of trades.
//
// Rates and means that have no sample are nil. AverageWin and AverageLoss are
// the exception: they are 0 when there are no winners or losers.
type Summary struct {
	// Counts
	TotalTrades     int `json:"total_trades" yaml:"total_trades"`
	ClosedTrades    int `json:"closed_trades" yaml:"closed_trades"`
	OpenTrades      int `json:"open_trades" yaml:"open_trades"`
	WinningTrades   int `json:"winning_trades" yaml:"winning_trades"`
	LosingTrades    int `json:"losing_trades" yaml:"losing_trades"`
	BreakevenTrades int `json:"breakeven_trades" yaml:"breakeven_trades"`

	// Rates and averages
	WinRate              *float64 `json:"win_rate" yaml:"win_rate"`
	AverageWin           float64  `json:"avg_winning_trade" yaml:"avg_winning_trade"`
	AverageLoss          float64  `json:"avg_losing_trade" yaml:"avg_losing_trade"`
	AverageProfitLoss    *float64 `json:"avg_profit_loss" yaml:"avg_profit_loss"`
	TotalProfitLoss      float64  `json:"total_profit_loss" yaml:"total_profit_loss"`
	AverageRiskReward    *float64 `json:"avg_risk_reward" yaml:"avg_risk_reward"`
	AverageHoldingPeriod *float64 `json:"avg_holding_period" yaml:"avg_holding_period"`
	ProfitFactor         *float64 `json:"profit_factor" yaml:"profit_factor"`
	MaxDrawdown          float64  `json:"max_drawdown" yaml:"max_drawdown"`

	BestTrade  *domain.Trade `json:"best_trade" yaml:"best_trade"`
	WorstTrade *domain.Trade `json:"worst_trade" yaml:"worst_trade"`

	// Chart series
	MonthlyPerformance    []MonthlyReturn `json:"monthly_performance" yaml:"monthly_performance"`
	TickerDistribution    []TickerCount   `json:"ticker_distribution" yaml:"ticker_distribution"`
	DirectionDistribution DirectionCount  `json:"direction_distribution" yaml:"direction_distribution"`
	HoldingDistribution   HoldingCount    `json:"holding_distribution" yaml:"holding_distribution"`
	EquityCurve           []EquityPoint   `json:"equity_curve" yaml:"equity_curve"`
}

// MonthlyReturn is the realized P/L of the trades exited in one calendar month.
type MonthlyReturn struct {
	Month      string  `json:"month" yaml:"month"` // YYYY-MM
	ProfitLoss float64 `json:"profit_loss" yaml:"profit_loss"`
}

// TickerCount is the number of trades taken on a ticker.
type TickerCount struct {
	Ticker string `json:"ticker" yaml:"ticker"`
	Count  int    `json:"count" yaml:"count"`
}

// DirectionCount splits trades by side.
type DirectionCount struct {
	Buy   int `json:"buy" yaml:"buy"`
	Short int `json:"short" yaml:"short"`
}

// HoldingCount splits closed trades into intraday (< 1 day) and overnight.
type HoldingCount struct {
	Intraday  int `json:"intraday" yaml:"intraday"`
	Overnight int `json:"overnight" yaml:"overnight"`
}

// EquityPoint represents a point on the equity curve
type EquityPoint struct {
	Time       time.Time `json:"time" yaml:"time"`
	TradeID    int64     `json:"trade_id" yaml:"trade_id"`
	ProfitLoss float64   `json:"profit_loss" yaml:"profit_loss"`
	Value      float64   `json:"value" yaml:"value"`
	Drawdown   float64   `json:"drawdown" yaml:"drawdown"`
}

// Summarize reduces trades into dashboard statistics. The input slice is not
// reordered. Derived values are recomputed rather than read from the cache.
func Summarize(trades []*domain.Trade, opts Options) *Summary {
	if opts.TopTickers <= 0 {
		opts.TopTickers = DefaultTopTickers
	}

	s := &Summary{
		MonthlyPerformance: MonthlyPerformance(trades),
		TickerDistribution: TickerDistribution(trades, opts.TopTickers),
		EquityCurve:        EquityCurve(trades),
	}

	var grossWin, grossLoss float64
	var holdingSum float64
	var holdingCount int
	var rrSum float64
	var rrCount int
	var bestPL, worstPL float64

	for _, trade := range trades {
		s.TotalTrades++
		switch trade.Direction {
		case domain.Buy:
			s.DirectionDistribution.Buy++
		case domain.Short:
			s.DirectionDistribution.Short++
		}
		if trade.IsOpen() {
			s.OpenTrades++
		}

		m := metrics.Calculate(trade)
		if m.RiskReward != nil {
			rrSum += *m.RiskReward
			rrCount++
		}
		if m.ProfitLoss == nil {
			continue
		}

		pl := *m.ProfitLoss
		s.ClosedTrades++
		s.TotalProfitLoss += pl
		switch {
		case pl > 0:
			s.WinningTrades++
			grossWin += pl
		case pl < 0:
			s.LosingTrades++
			grossLoss += pl
		default:
			s.BreakevenTrades++
		}

		// strict comparisons keep the first trade on ties
		if s.BestTrade == nil || pl > bestPL {
			s.BestTrade, bestPL = trade, pl
		}
		if s.WorstTrade == nil || pl < worstPL {
			s.WorstTrade, worstPL = trade, pl
		}

		if m.DaysHeld != nil {
			holdingSum += *m.DaysHeld
			holdingCount++
			if metrics.IsIntraday(*m.DaysHeld) {
				s.HoldingDistribution.Intraday++
			} else {
				s.HoldingDistribution.Overnight++
			}
		}
	}

	if s.WinningTrades > 0 {
		s.AverageWin = grossWin / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AverageLoss = grossLoss / float64(s.LosingTrades)
		pf := grossWin / -grossLoss
		s.ProfitFactor = &pf
	}
	if s.ClosedTrades > 0 {
		s.WinRate = mean(float64(s.WinningTrades), s.ClosedTrades)
		s.AverageProfitLoss = mean(s.TotalProfitLoss, s.ClosedTrades)
	}
	if holdingCount > 0 {
		s.AverageHoldingPeriod = mean(holdingSum, holdingCount)
	}
	if rrCount > 0 {
		s.AverageRiskReward = mean(rrSum, rrCount)
	}
	for _, p := range s.EquityCurve {
		if p.Drawdown > s.MaxDrawdown {
			s.MaxDrawdown = p.Drawdown
		}
	}

	return s
}

// EquityCurve sorts the closed trades by exit date (ties keep input order) and
// returns the running sum of realized P/L, one point per trade. Drawdown is
// the distance below the running peak, which starts at zero.
func EquityCurve(trades []*domain.Trade) []EquityPoint {
	type closed struct {
		trade *domain.Trade
		pl    float64
	}
	sorted := make([]closed, 0, len(trades))
	for _, trade := range trades {
		if pl := metrics.ProfitLoss(trade); pl != nil {
			sorted = append(sorted, closed{trade: trade, pl: *pl})
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].trade.ExitDate.Before(*sorted[j].trade.ExitDate)
	})

	curve := make([]EquityPoint, 0, len(sorted))
	var equity, peak float64
	for _, c := range sorted {
		equity += c.pl
		if equity > peak {
			peak = equity
		}
		curve = append(curve, EquityPoint{
			Time:       *c.trade.ExitDate,
			TradeID:    c.trade.ID,
			ProfitLoss: c.pl,
			Value:      equity,
			Drawdown:   peak - equity,
		})
	}
	return curve
}

// MonthlyPerformance sums realized P/L per calendar month of the exit date,
// in chronological order.
func MonthlyPerformance(trades []*domain.Trade) []MonthlyReturn {
	totals := make(map[string]float64)
	for _, trade := range trades {
		pl := metrics.ProfitLoss(trade)
		if pl == nil {
			continue
		}
		totals[trade.ExitDate.Format(monthLayout)] += *pl
	}

	returns := make([]MonthlyReturn, 0, len(totals))
	for month, profit := range totals {
		returns = append(returns, MonthlyReturn{Month: month, ProfitLoss: profit})
	}
	// YYYY-MM sorts lexically in calendar order
	sort.Slice(returns, func(i, j int) bool {
		return returns[i].Month < returns[j].Month
	})
	return returns
}

// TickerDistribution counts trades per ticker, most traded first, and keeps
// the top n. Tickers with equal counts stay in order of first appearance.
func TickerDistribution(trades []*domain.Trade, n int) []TickerCount {
	counts := make(map[string]int)
	var order []string
	for _, trade := range trades {
		if _, ok := counts[trade.Ticker]; !ok {
			order = append(order, trade.Ticker)
		}
		counts[trade.Ticker]++
	}

	dist := make([]TickerCount, 0, len(order))
	for _, ticker := range order {
		dist = append(dist, TickerCount{Ticker: ticker, Count: counts[ticker]})
	}
	sort.SliceStable(dist, func(i, j int) bool {
		return dist[i].Count > dist[j].Count
	})
	if n > 0 && len(dist) > n {
		dist = dist[:n]
	}
	return dist
}

func mean(sum float64, n int) *float64 {
	v := sum / float64(n)
	return &v
}

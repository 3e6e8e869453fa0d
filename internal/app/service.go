package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tradingJournal/config"
	"tradingJournal/internal/analytics"
	"tradingJournal/internal/domain"
	"tradingJournal/internal/importer"
	"tradingJournal/internal/metrics"
	"tradingJournal/internal/ports"
	"tradingJournal/internal/risk"
)

// JournalService orchestrates the trade journal: it keeps cached metrics and
// the cumulative equity column consistent on every write.
type JournalService struct {
	logger      ports.Logger
	repo        ports.TradeRepository
	prices      ports.PriceHistoryProvider // optional
	defaults    risk.Defaults
	transformer *importer.Transformer
	topTickers  int
}

// NewJournalService creates a new application service instance. prices may be
// nil, in which case PriceHistory reports a configuration error.
func NewJournalService(
	cfg *config.Config,
	logger ports.Logger,
	repo ports.TradeRepository,
	prices ports.PriceHistoryProvider,
) (*JournalService, error) {
	if cfg == nil || logger == nil || repo == nil {
		return nil, fmt.Errorf("missing required dependencies for JournalService: %w", ports.ErrConfigurationError)
	}

	defaults := cfg.RiskDefaults()
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ports.ErrConfigurationError)
	}
	loc := cfg.ImportLocation
	if loc == nil {
		loc = time.Local
	}

	return &JournalService{
		logger:      logger,
		repo:        repo,
		prices:      prices,
		defaults:    defaults,
		transformer: &importer.Transformer{Defaults: defaults, Location: loc},
		topTickers:  cfg.TopTickers,
	}, nil
}

// ApplyDefaultPlan fills in a missing stop loss and target price from the
// configured percentages.
func (s *JournalService) ApplyDefaultPlan(t *domain.Trade) {
	s.defaults.Apply(t)
}

// CreateTrade validates and stores a new trade.
func (s *JournalService) CreateTrade(ctx context.Context, t *domain.Trade) (*domain.Trade, error) {
	if err := s.insert(ctx, t); err != nil {
		return nil, err
	}
	if err := s.rebuildEquity(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Trade created", tradeFields(t))
	return t, nil
}

func (s *JournalService) insert(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return fmt.Errorf("trade is required: %w", ports.ErrInvalidRequest)
	}
	t.ID = 0
	t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	metrics.Apply(t)
	t.CumulativeEquity = nil

	if _, err := s.repo.Create(ctx, t); err != nil {
		return fmt.Errorf("failed to save trade %s: %w", t.Ticker, err)
	}
	return nil
}

// UpdateTrade overwrites the user-entered fields of an existing trade.
func (s *JournalService) UpdateTrade(ctx context.Context, t *domain.Trade) (*domain.Trade, error) {
	if t == nil {
		return nil, fmt.Errorf("trade is required: %w", ports.ErrInvalidRequest)
	}
	existing, err := s.GetTrade(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	metrics.Apply(t)
	t.CreatedAt = existing.CreatedAt
	t.CumulativeEquity = existing.CumulativeEquity

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update trade %d: %w", t.ID, err)
	}
	if err := s.rebuildEquity(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Trade updated", tradeFields(t))
	return t, nil
}

// CloseTrade records the exit of an open trade.
func (s *JournalService) CloseTrade(ctx context.Context, id int64, exitPrice float64, exitDate time.Time) (*domain.Trade, error) {
	t, err := s.GetTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Close(exitPrice, exitDate)
	return s.UpdateTrade(ctx, t)
}

// DeleteTrade removes a trade and rebuilds the equity of the remaining ones.
func (s *JournalService) DeleteTrade(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete trade %d: %w", id, err)
	}
	if err := s.rebuildEquity(ctx, nil); err != nil {
		return err
	}
	s.logger.Info(ctx, "Trade deleted", map[string]interface{}{"tradeID": id})
	return nil
}

// GetTrade returns the trade with the given ID, or an error wrapping
// ports.ErrNotFound.
func (s *JournalService) GetTrade(ctx context.Context, id int64) (*domain.Trade, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade %d: %w", id, err)
	}
	if t == nil {
		return nil, fmt.Errorf("trade %d: %w", id, ports.ErrNotFound)
	}
	return t, nil
}

// ListTrades returns the trades matching filter.
func (s *JournalService) ListTrades(ctx context.Context, filter ports.ListFilter) ([]*domain.Trade, error) {
	trades, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

// Stats aggregates every stored trade into dashboard statistics.
func (s *JournalService) Stats(ctx context.Context) (*analytics.Summary, error) {
	trades, err := s.repo.FindAll(ctx, ports.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load trades for stats: %w", err)
	}
	return analytics.Summarize(trades, analytics.Options{TopTickers: s.topTickers}), nil
}

// RecalculateAll recomputes the cached metrics of every stored trade and
// rebuilds the cumulative equity. It returns the number of trades rewritten.
func (s *JournalService) RecalculateAll(ctx context.Context) (int, error) {
	trades, err := s.repo.FindAll(ctx, ports.ListFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to load trades for recalculation: %w", err)
	}

	updated := 0
	for _, t := range trades {
		if err := ctx.Err(); err != nil {
			return updated, fmt.Errorf("recalculation interrupted: %w", ports.ErrContextCanceled)
		}
		metrics.Apply(t)
		if err := s.repo.Update(ctx, t); err != nil {
			return updated, fmt.Errorf("failed to update trade %d: %w", t.ID, err)
		}
		updated++
	}

	if err := s.writeEquity(ctx, trades); err != nil {
		return updated, err
	}
	s.logger.Info(ctx, "Trade metrics recalculated", map[string]interface{}{"trades": updated})
	return updated, nil
}

// PriceHistory returns daily bars for ticker between start and end.
func (s *JournalService) PriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]*domain.PriceBar, error) {
	if s.prices == nil {
		return nil, fmt.Errorf("no price history source configured: %w", ports.ErrConfigurationError)
	}
	if start.After(end) {
		return nil, fmt.Errorf("start %s is after end %s: %w",
			start.Format(time.DateOnly), end.Format(time.DateOnly), ports.ErrInvalidRequest)
	}
	bars, err := s.prices.GetPriceHistory(ctx, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history for %s: %w", ticker, err)
	}
	return bars, nil
}

// rebuildEquity recomputes the running equity of every closed trade and
// stores what changed. If current is not nil its CumulativeEquity is updated
// in place.
func (s *JournalService) rebuildEquity(ctx context.Context, current *domain.Trade) error {
	trades, err := s.repo.FindAll(ctx, ports.ListFilter{})
	if err != nil {
		return fmt.Errorf("failed to load trades for equity rebuild: %w", err)
	}
	if err := s.writeEquity(ctx, trades); err != nil {
		return err
	}
	if current != nil {
		for _, t := range trades {
			if t.ID == current.ID {
				current.CumulativeEquity = t.CumulativeEquity
				break
			}
		}
	}
	return nil
}

func (s *JournalService) writeEquity(ctx context.Context, trades []*domain.Trade) error {
	values := make(map[int64]float64)
	for _, p := range analytics.EquityCurve(trades) {
		values[p.TradeID] = p.Value
	}

	changed := make(map[int64]*float64)
	for _, t := range trades {
		var want *float64
		if v, ok := values[t.ID]; ok {
			want = domain.Float(v)
		}
		if !sameValue(t.CumulativeEquity, want) {
			changed[t.ID] = want
		}
		t.CumulativeEquity = want
	}

	if err := s.repo.UpdateCumulativeEquity(ctx, changed); err != nil {
		return fmt.Errorf("failed to store cumulative equity: %w", err)
	}
	return nil
}

func sameValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func tradeFields(t *domain.Trade) map[string]interface{} {
	fields := map[string]interface{}{
		"tradeID":   t.ID,
		"ticker":    t.Ticker,
		"direction": string(t.Direction),
		"status":    string(t.Status()),
	}
	if t.Metrics.ProfitLoss != nil {
		fields["profitLoss"] = *t.Metrics.ProfitLoss
	}
	return fields
}

// ProgressFunc receives import progress after each trade-action record,
// whether it was created or rejected.
type ProgressFunc func(done, total int, percent float64)

// ImportResult summarizes one brokerage import.
type ImportResult struct {
	BatchID   string
	Total     int // Transactions in the dump
	Processed int // Trade-action records: Succeeded + Failed
	Succeeded int
	Failed    int
	Skipped   int // Non-trade actions such as dividends
	Failures  []importer.ItemFailure
}

// ImportTransactions transforms a brokerage dump and creates one trade per
// accepted transaction. Bad records are reported in the result and never
// abort the batch. Records are visited in dump order.
func (s *JournalService) ImportTransactions(ctx context.Context, txs []importer.Transaction, progress ProgressFunc) (*ImportResult, error) {
	batch := s.transformer.TransformBatch(txs)
	if batch.Err != nil {
		return nil, batch.Err
	}

	res := &ImportResult{
		BatchID: uuid.NewString(),
		Total:   batch.Total,
		Skipped: batch.Skipped,
	}
	steps := len(batch.Trades) + len(batch.Failures)

	var runErr error
	ti, fi := 0, 0
	for done := 1; done <= steps; done++ {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("import %s interrupted after %d of %d records: %w", res.BatchID, done-1, steps, ports.ErrContextCanceled)
			break
		}

		// both lists are in dump order; take whichever comes first
		if fi < len(batch.Failures) && (ti >= len(batch.Trades) || batch.Failures[fi].Index < batch.Indexes[ti]) {
			f := batch.Failures[fi]
			fi++
			res.Failed++
			res.Failures = append(res.Failures, f)
			s.logger.Warn(ctx, "Import record rejected", map[string]interface{}{
				"batchID": res.BatchID, "index": f.Index, "symbol": f.Symbol, "error": f.Err.Error(),
			})
		} else {
			t, idx := batch.Trades[ti], batch.Indexes[ti]
			ti++
			if err := s.insert(ctx, t); err != nil {
				res.Failed++
				res.Failures = append(res.Failures, importer.ItemFailure{Index: idx, Symbol: t.Ticker, Err: err})
				s.logger.Error(ctx, err, "Import trade creation failed", map[string]interface{}{
					"batchID": res.BatchID, "index": idx, "symbol": t.Ticker,
				})
			} else {
				res.Succeeded++
			}
		}
		res.Processed = done

		if progress != nil {
			progress(done, steps, float64(done)*100/float64(steps))
		}
	}

	if res.Succeeded > 0 {
		if err := s.rebuildEquity(ctx, nil); err != nil {
			return res, errors.Join(runErr, err)
		}
	}

	s.logger.Info(ctx, "Import finished", map[string]interface{}{
		"batchID":   res.BatchID,
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
		"skipped":   res.Skipped,
	})
	return res, runErr
}

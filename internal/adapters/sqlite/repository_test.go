package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradingJournal/internal/domain"
	"tradingJournal/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

var _ ports.TradeRepository = (*Repository)(nil)

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "trading-journal-test-*")
	require.NoError(t, err)

	repo, err := NewRepository(Config{
		DBPath: filepath.Join(tmpDir, "test.db"),
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cleanup
}

var entry = time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

func newTrade(ticker string, volume int, entryPrice float64) *domain.Trade {
	return &domain.Trade{
		Ticker:     ticker,
		Direction:  domain.Buy,
		Volume:     volume,
		EntryPrice: entryPrice,
		EntryDate:  entry,
		Metrics:    domain.Metrics{CapitalInvested: float64(volume) * entryPrice},
	}
}

func closed(t *domain.Trade, exitPrice float64, exitDate time.Time) *domain.Trade {
	t.Close(exitPrice, exitDate)
	pl := (exitPrice - t.EntryPrice) * float64(t.Volume)
	t.Metrics.ProfitLoss = &pl
	return t
}

func TestRepository_NewRequiresLogger(t *testing.T) {
	_, err := NewRepository(Config{DBPath: filepath.Join(t.TempDir(), "x.db")})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestRepository_CreateAndFind(t *testing.T) {
	tests := []struct {
		name  string
		trade *domain.Trade
	}{
		{
			name:  "open trade without plan",
			trade: newTrade("AAPL", 10, 100),
		},
		{
			name: "closed trade with plan and metrics",
			trade: func() *domain.Trade {
				tr := newTrade("MSFT", 5, 400)
				tr.Direction = domain.Short
				tr.StopLoss = domain.Float(420)
				tr.TargetPrice = domain.Float(360)
				tr.Metrics.RiskDollars = domain.Float(100)
				tr.Metrics.RiskReward = domain.Float(2)
				tr.CumulativeEquity = domain.Float(200)
				return closed(tr, 360, entry.Add(48*time.Hour))
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, cleanup := setupTestDB(t)
			defer cleanup()
			ctx := context.Background()

			id, err := repo.Create(ctx, tt.trade)
			require.NoError(t, err)
			assert.Greater(t, id, int64(0))
			assert.Equal(t, id, tt.trade.ID)

			got, err := repo.FindByID(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, got)

			assert.Equal(t, tt.trade.Ticker, got.Ticker)
			assert.Equal(t, tt.trade.Direction, got.Direction)
			assert.Equal(t, tt.trade.Volume, got.Volume)
			assert.Equal(t, tt.trade.EntryPrice, got.EntryPrice)
			assert.True(t, tt.trade.EntryDate.Equal(got.EntryDate))
			assert.Equal(t, tt.trade.StopLoss, got.StopLoss)
			assert.Equal(t, tt.trade.TargetPrice, got.TargetPrice)
			assert.Equal(t, tt.trade.ExitPrice, got.ExitPrice)
			assert.Equal(t, tt.trade.Metrics, got.Metrics)
			assert.Equal(t, tt.trade.CumulativeEquity, got.CumulativeEquity)
			if tt.trade.ExitDate == nil {
				assert.Nil(t, got.ExitDate)
			} else {
				require.NotNil(t, got.ExitDate)
				assert.True(t, tt.trade.ExitDate.Equal(*got.ExitDate))
			}
			assert.False(t, got.CreatedAt.IsZero())
		})
	}
}

func TestRepository_FindByIDMissing(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := repo.FindByID(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	trade := newTrade("AAPL", 10, 100)
	_, err := repo.Create(ctx, trade)
	require.NoError(t, err)

	closed(trade, 110, entry.Add(time.Hour))
	require.NoError(t, repo.Update(ctx, trade))

	got, err := repo.FindByID(ctx, trade.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ExitPrice)
	assert.Equal(t, 110.0, *got.ExitPrice)
	require.NotNil(t, got.Metrics.ProfitLoss)
	assert.Equal(t, 100.0, *got.Metrics.ProfitLoss)

	require.NoError(t, repo.Delete(ctx, trade.ID))
	got, err = repo.FindByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, repo.Delete(ctx, trade.ID), ports.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, trade), ports.ErrNotFound)
}

func TestRepository_FindAllFilterAndSort(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seed := []*domain.Trade{
		closed(newTrade("AAPL", 10, 100), 120, entry.Add(72*time.Hour)), // +200
		closed(newTrade("MSFT", 20, 50), 45, entry.Add(24*time.Hour)),   // -100
		newTrade("AAL", 30, 15),
		closed(newTrade("BAAB", 1, 10), 15, entry.Add(48*time.Hour)), // +5
	}
	for i, tr := range seed {
		tr.EntryDate = entry.Add(time.Duration(i) * time.Hour)
		_, err := repo.Create(ctx, tr)
		require.NoError(t, err)
	}

	tickers := func(trades []*domain.Trade) []string {
		out := make([]string, 0, len(trades))
		for _, tr := range trades {
			out = append(out, tr.Ticker)
		}
		return out
	}

	tests := []struct {
		name   string
		filter ports.ListFilter
		want   []string
	}{
		{"default entry date order", ports.ListFilter{}, []string{"AAPL", "MSFT", "AAL", "BAAB"}},
		{"entry date descending", ports.ListFilter{Desc: true}, []string{"BAAB", "AAL", "MSFT", "AAPL"}},
		{"substring is case-insensitive", ports.ListFilter{Ticker: "aa", SortBy: ports.SortByTicker}, []string{"AAL", "AAPL", "BAAB"}},
		{"profit loss descending", ports.ListFilter{SortBy: ports.SortByProfitLoss, Desc: true}, []string{"AAPL", "BAAB", "MSFT", "AAL"}},
		{"volume with limit", ports.ListFilter{SortBy: ports.SortByVolume, Desc: true, Limit: 2}, []string{"AAL", "MSFT"}},
		{"exit date ascending puts open trades first", ports.ListFilter{SortBy: ports.SortByExitDate}, []string{"AAL", "MSFT", "BAAB", "AAPL"}},
		{"no match", ports.ListFilter{Ticker: "ZZZ"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tickers(got))
		})
	}

	_, err := repo.FindAll(ctx, ports.ListFilter{SortBy: "entry_price; DROP TABLE trades"})
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestRepository_UpdateCumulativeEquity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first := closed(newTrade("AAPL", 10, 100), 110, entry.Add(time.Hour))
	second := newTrade("MSFT", 1, 50)
	second.CumulativeEquity = domain.Float(999)
	for _, tr := range []*domain.Trade{first, second} {
		_, err := repo.Create(ctx, tr)
		require.NoError(t, err)
	}

	err := repo.UpdateCumulativeEquity(ctx, map[int64]*float64{
		first.ID:  domain.Float(100),
		second.ID: nil,
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CumulativeEquity)
	assert.Equal(t, 100.0, *got.CumulativeEquity)

	got, err = repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CumulativeEquity)

	assert.NoError(t, repo.UpdateCumulativeEquity(ctx, nil))
}

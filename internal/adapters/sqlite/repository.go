package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradingJournal/internal/domain"
	"tradingJournal/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.TradeRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository: %w", ports.ErrConfigurationError)
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trading_journal.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %v: %w", dbPath, err, ports.ErrDBConnection)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %v: %w", dbPath, err, ports.ErrDBConnection)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// one writer keeps equity rebuilds serialized
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Trade store ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL,
		direction TEXT NOT NULL,
		volume INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		entry_date TIMESTAMP NOT NULL,
		stop_loss REAL DEFAULT NULL,
		target_price REAL DEFAULT NULL,
		exit_date TIMESTAMP DEFAULT NULL,
		exit_price REAL DEFAULT NULL,
		capital_invested REAL NOT NULL DEFAULT 0,
		risk_per_share REAL DEFAULT NULL,
		risk_dollars REAL DEFAULT NULL,
		target_profit_loss REAL DEFAULT NULL,
		profit_factor REAL DEFAULT NULL,
		profit_per_share REAL DEFAULT NULL,
		profit_loss REAL DEFAULT NULL,
		days_held REAL DEFAULT NULL,
		risk_reward REAL DEFAULT NULL,
		cumulative_equity REAL DEFAULT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades (ticker);
	CREATE INDEX IF NOT EXISTS idx_trades_exit_date ON trades (exit_date);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Debug(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

const selectColumns = `
	SELECT id, ticker, direction, volume, entry_price, entry_date, stop_loss, target_price,
	       exit_date, exit_price, capital_invested, risk_per_share, risk_dollars,
	       target_profit_loss, profit_factor, profit_per_share, profit_loss, days_held,
	       risk_reward, cumulative_equity, created_at, updated_at
	FROM trades`

// sortColumns whitelists the ORDER BY targets accepted from callers.
var sortColumns = map[string]string{
	ports.SortByEntryDate:  "entry_date",
	ports.SortByExitDate:   "exit_date",
	ports.SortByTicker:     "ticker",
	ports.SortByProfitLoss: "profit_loss",
	ports.SortByVolume:     "volume",
}

// Create saves a new trade and returns its assigned ID.
func (r *Repository) Create(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (ticker, direction, volume, entry_price, entry_date, stop_loss, target_price,
	                    exit_date, exit_price, capital_invested, risk_per_share, risk_dollars,
	                    target_profit_loss, profit_factor, profit_per_share, profit_loss, days_held,
	                    risk_reward, cumulative_equity, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = now
	}
	trade.UpdatedAt = now

	m := trade.Metrics
	result, err := r.db.ExecContext(ctx, query,
		trade.Ticker, string(trade.Direction), trade.Volume, trade.EntryPrice, trade.EntryDate,
		nullFloat(trade.StopLoss), nullFloat(trade.TargetPrice), nullTime(trade.ExitDate), nullFloat(trade.ExitPrice),
		m.CapitalInvested, nullFloat(m.RiskPerShare), nullFloat(m.RiskDollars), nullFloat(m.TargetProfitLoss),
		nullFloat(m.ProfitFactor), nullFloat(m.ProfitPerShare), nullFloat(m.ProfitLoss), nullFloat(m.DaysHeld),
		nullFloat(m.RiskReward), nullFloat(trade.CumulativeEquity), trade.CreatedAt, trade.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade for ticker %s: %v: %w", trade.Ticker, err, ports.ErrQueryFailed)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade %s: %w", trade.Ticker, err)
	}
	trade.ID = id
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": id, "ticker": trade.Ticker})
	return id, nil
}

// Update overwrites an existing trade based on its ID.
func (r *Repository) Update(ctx context.Context, trade *domain.Trade) error {
	const query = `
	UPDATE trades
	SET ticker = ?, direction = ?, volume = ?, entry_price = ?, entry_date = ?, stop_loss = ?,
	    target_price = ?, exit_date = ?, exit_price = ?, capital_invested = ?, risk_per_share = ?,
	    risk_dollars = ?, target_profit_loss = ?, profit_factor = ?, profit_per_share = ?,
	    profit_loss = ?, days_held = ?, risk_reward = ?, cumulative_equity = ?, updated_at = ?
	WHERE id = ?`

	trade.UpdatedAt = time.Now().UTC()
	m := trade.Metrics
	result, err := r.db.ExecContext(ctx, query,
		trade.Ticker, string(trade.Direction), trade.Volume, trade.EntryPrice, trade.EntryDate,
		nullFloat(trade.StopLoss), nullFloat(trade.TargetPrice), nullTime(trade.ExitDate), nullFloat(trade.ExitPrice),
		m.CapitalInvested, nullFloat(m.RiskPerShare), nullFloat(m.RiskDollars), nullFloat(m.TargetProfitLoss),
		nullFloat(m.ProfitFactor), nullFloat(m.ProfitPerShare), nullFloat(m.ProfitLoss), nullFloat(m.DaysHeld),
		nullFloat(m.RiskReward), nullFloat(trade.CumulativeEquity), trade.UpdatedAt,
		trade.ID)
	if err != nil {
		return fmt.Errorf("failed to update trade ID %d: %v: %w", trade.ID, err, ports.ErrUpdateFailed)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for update trade ID %d: %w", trade.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade ID %d not found for update: %w", trade.ID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade updated", map[string]interface{}{"tradeID": trade.ID, "ticker": trade.Ticker})
	return nil
}

// Delete removes a trade by its ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade ID %d: %v: %w", id, err, ports.ErrDeleteFailed)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for delete trade ID %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade ID %d not found for delete: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade deleted", map[string]interface{}{"tradeID": id})
	return nil
}

// FindByID retrieves a trade by its unique ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Trade, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Trade not found by ID", map[string]interface{}{"tradeID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query trade by ID %d: %v: %w", id, err, ports.ErrQueryFailed)
	}
	return trade, nil
}

// FindAll retrieves the trades matching filter. Without an explicit sort the
// trades come back in entry date order.
func (r *Repository) FindAll(ctx context.Context, filter ports.ListFilter) ([]*domain.Trade, error) {
	var sb strings.Builder
	sb.WriteString(selectColumns)

	var args []interface{}
	if ticker := strings.TrimSpace(filter.Ticker); ticker != "" {
		sb.WriteString(` WHERE ticker LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToUpper(ticker))+"%")
	}

	column := "entry_date"
	if filter.SortBy != "" {
		c, ok := sortColumns[filter.SortBy]
		if !ok {
			return nil, fmt.Errorf("unsupported sort field %q: %w", filter.SortBy, ports.ErrInvalidRequest)
		}
		column = c
	}
	dir := "ASC"
	if filter.Desc {
		dir = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", column, dir, dir)

	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %v: %w", err, ports.ErrQueryFailed)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindAll: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// UpdateCumulativeEquity writes the running equity for each trade ID in one
// transaction. A nil value clears the column.
func (r *Repository) UpdateCumulativeEquity(ctx context.Context, equity map[int64]*float64) error {
	if len(equity) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin equity update: %v: %w", err, ports.ErrUpdateFailed)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE trades SET cumulative_equity = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare equity update: %v: %w", err, ports.ErrUpdateFailed)
	}
	defer stmt.Close()

	for id, value := range equity {
		if _, err := stmt.ExecContext(ctx, nullFloat(value), id); err != nil {
			return fmt.Errorf("failed to update equity for trade ID %d: %v: %w", id, err, ports.ErrUpdateFailed)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit equity update: %v: %w", err, ports.ErrUpdateFailed)
	}
	r.logger.Debug(ctx, "Cumulative equity updated", map[string]interface{}{"trades": len(equity)})
	return nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var direction string
	var stopLoss, targetPrice, exitPrice sql.NullFloat64
	var riskPerShare, riskDollars, targetPL, profitFactor, profitPerShare, profitLoss, daysHeld, riskReward sql.NullFloat64
	var cumulativeEquity sql.NullFloat64
	var exitDate sql.NullTime

	err := s.Scan(
		&t.ID, &t.Ticker, &direction, &t.Volume, &t.EntryPrice, &t.EntryDate, &stopLoss, &targetPrice,
		&exitDate, &exitPrice, &t.Metrics.CapitalInvested, &riskPerShare, &riskDollars,
		&targetPL, &profitFactor, &profitPerShare, &profitLoss, &daysHeld,
		&riskReward, &cumulativeEquity, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}

	t.Direction = domain.Direction(direction)
	t.StopLoss = floatPtr(stopLoss)
	t.TargetPrice = floatPtr(targetPrice)
	t.ExitPrice = floatPtr(exitPrice)
	if exitDate.Valid {
		t.ExitDate = domain.Time(exitDate.Time)
	}
	t.Metrics.RiskPerShare = floatPtr(riskPerShare)
	t.Metrics.RiskDollars = floatPtr(riskDollars)
	t.Metrics.TargetProfitLoss = floatPtr(targetPL)
	t.Metrics.ProfitFactor = floatPtr(profitFactor)
	t.Metrics.ProfitPerShare = floatPtr(profitPerShare)
	t.Metrics.ProfitLoss = floatPtr(profitLoss)
	t.Metrics.DaysHeld = floatPtr(daysHeld)
	t.Metrics.RiskReward = floatPtr(riskReward)
	t.CumulativeEquity = floatPtr(cumulativeEquity)
	return t, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Float(v.Float64)
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

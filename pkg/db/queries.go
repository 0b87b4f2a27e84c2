// Package db provides the sqlite persistence layer for trades, strategy
// configs, and account snapshots.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("record not found")

// Trade is one persisted closed-trade row.
type Trade struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Symbol      string    `json:"symbol"`
	Strategy    string    `json:"strategy"`
	Side        string    `json:"side"`
	Qty         float64   `json:"qty"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	PnL         float64   `json:"pnl"`
	PnLPct      float64   `json:"pnl_pct"`
	Reason      string    `json:"reason"`
	OpenedAt    time.Time `json:"opened_at"`
	ClosedAt    time.Time `json:"closed_at"`
	DurationSec float64   `json:"duration_sec"`
}

// StrategyConfigRow mirrors what is running, for the dashboard.
type StrategyConfigRow struct {
	Name           string    `json:"name"`
	Enabled        bool      `json:"enabled"`
	MinConfidence  float64   `json:"min_confidence"`
	AllowedRegimes string    `json:"allowed_regimes"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TradeStats aggregates an account's closed trades.
type TradeStats struct {
	Count    int     `json:"count"`
	TotalPnL float64 `json:"total_pnl"`
	WinCount int     `json:"win_count"`
	AvgPnL   float64 `json:"avg_pnl"`
}

// Queries wraps read access for the API layer.
type Queries struct {
	db *sql.DB
}

func NewQueries(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// ListTrades returns the most recent closed trades for an account, newest
// first.
func (q *Queries) ListTrades(ctx context.Context, accountID string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, account_id, symbol, COALESCE(strategy, ''), side, qty,
		       entry_price, exit_price, pnl, pnl_pct, COALESCE(reason, ''),
		       opened_at, closed_at, duration_sec
		FROM trades
		WHERE account_id = ?
		ORDER BY closed_at DESC
		LIMIT ?
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Symbol, &t.Strategy, &t.Side, &t.Qty,
			&t.EntryPrice, &t.ExitPrice, &t.PnL, &t.PnLPct, &t.Reason,
			&t.OpenedAt, &t.ClosedAt, &t.DurationSec); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetTrade looks one trade up by id.
func (q *Queries) GetTrade(ctx context.Context, id string) (*Trade, error) {
	var t Trade
	err := q.db.QueryRowContext(ctx, `
		SELECT id, account_id, symbol, COALESCE(strategy, ''), side, qty,
		       entry_price, exit_price, pnl, pnl_pct, COALESCE(reason, ''),
		       opened_at, closed_at, duration_sec
		FROM trades
		WHERE id = ?
	`, id).Scan(&t.ID, &t.AccountID, &t.Symbol, &t.Strategy, &t.Side, &t.Qty,
		&t.EntryPrice, &t.ExitPrice, &t.PnL, &t.PnLPct, &t.Reason,
		&t.OpenedAt, &t.ClosedAt, &t.DurationSec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query trade %s: %w", id, err)
	}
	return &t, nil
}

// GetTradeStats aggregates pnl for an account.
func (q *Queries) GetTradeStats(ctx context.Context, accountID string) (*TradeStats, error) {
	var s TradeStats
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(pnl), 0),
		       COALESCE(SUM(CASE WHEN pnl > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(pnl), 0)
		FROM trades
		WHERE account_id = ?
	`, accountID).Scan(&s.Count, &s.TotalPnL, &s.WinCount, &s.AvgPnL)
	if err != nil {
		return nil, fmt.Errorf("query trade stats: %w", err)
	}
	return &s, nil
}

// ListStrategyConfigs returns the synced strategy configs.
func (q *Queries) ListStrategyConfigs(ctx context.Context) ([]StrategyConfigRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT name, enabled, min_confidence, allowed_regimes, updated_at
		FROM strategy_configs
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query strategy configs: %w", err)
	}
	defer rows.Close()

	var configs []StrategyConfigRow
	for rows.Next() {
		var c StrategyConfigRow
		if err := rows.Scan(&c.Name, &c.Enabled, &c.MinConfidence, &c.AllowedRegimes, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan strategy config: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

// InsertAccountSnapshot records a periodic account snapshot.
func (q *Queries) InsertAccountSnapshot(ctx context.Context, accountID string, balance, equity, realizedPnL float64, openPositions int, openNotional float64) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO account_snapshots (account_id, balance, equity, realized_pnl, open_positions, open_notional)
		VALUES (?, ?, ?, ?, ?, ?)
	`, accountID, balance, equity, realizedPnL, openPositions, openNotional)
	if err != nil {
		return fmt.Errorf("insert account snapshot: %w", err)
	}
	return nil
}

package tradelog

import (
	"database/sql"
	"log"
)

// DB writes trade records into the trades table so the dashboard can query
// history.
type DB struct {
	db *sql.DB
}

func NewDB(db *sql.DB) *DB {
	return &DB{db: db}
}

func (s *DB) Append(rec Record) {
	_, err := s.db.Exec(`
		INSERT INTO trades (
			id, account_id, symbol, strategy, side, qty,
			entry_price, exit_price, pnl, pnl_pct, reason,
			opened_at, closed_at, duration_sec
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.TradeID, rec.AccountID, rec.Symbol, rec.Strategy, rec.Side, rec.Qty,
		rec.EntryPrice, rec.ExitPrice, rec.PnL, rec.PnLPct, rec.Reason,
		rec.OpenedAt, rec.ClosedAt, rec.DurationSec,
	)
	if err != nil {
		log.Printf("[TRADELOG] failed to insert trade %s: %v", rec.TradeID, err)
	}
}

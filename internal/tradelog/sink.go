// Package tradelog delivers closed-trade records to append-only sinks. A sink
// failure is logged and absorbed; trade execution never depends on it.
package tradelog

import "time"

// Record is one immutable closed-trade entry.
type Record struct {
	TradeID     string    `json:"trade_id"`
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

// Sink accepts closed-trade records. Implementations must not propagate
// failures to the caller.
type Sink interface {
	Append(rec Record)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Append(Record) {}

// Multi fans one record out to several sinks in order.
type Multi []Sink

func (m Multi) Append(rec Record) {
	for _, s := range m {
		s.Append(rec)
	}
}

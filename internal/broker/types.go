package broker

import (
	"time"

	"github.com/google/uuid"
)

// Order status values.
const (
	OrderStatusCreated   = "created"
	OrderStatusFilled    = "filled"
	OrderStatusCancelled = "cancelled"
)

// Position sides.
const (
	PositionLong  = "long"
	PositionShort = "short"
)

// Order is an immediate-fill market order record.
type Order struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"` // buy or sell
	Qty          float64   `json:"qty"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	LimitPrice   float64   `json:"limit_price,omitempty"`
	FilledQty    float64   `json:"filled_qty"`
	AvgFillPrice float64   `json:"avg_fill_price"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Position has a two-state lifecycle: open while stored in the account, and
// the returned copy is terminally closed once ClosePosition runs.
type Position struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"` // long or short
	Qty         float64   `json:"qty"`
	EntryPrice  float64   `json:"entry_price"`
	TakeProfit  *float64  `json:"take_profit,omitempty"` // nil when no TP set
	StopLoss    *float64  `json:"stop_loss,omitempty"`   // nil when no SL set
	OpenedAt    time.Time `json:"opened_at"`
	ClosedAt    time.Time `json:"closed_at,omitempty"`
	RealizedPnL float64   `json:"realized_pnl"`
}

// Notional is the position's entry-price exposure.
func (p *Position) Notional() float64 {
	return p.EntryPrice * p.Qty
}

// AccountState is the mutable paper-account bookkeeping. Equity always equals
// balance; open positions never contribute unrealized PnL.
type AccountState struct {
	Balance     float64              `json:"balance"`
	Equity      float64              `json:"equity"`
	RealizedPnL float64              `json:"realized_pnl"`
	Positions   map[string]*Position `json:"positions"`
}

// Summary is a point-in-time account snapshot.
type Summary struct {
	AccountID    string  `json:"account_id"`
	Balance      float64 `json:"balance"`
	Equity       float64 `json:"equity"`
	RealizedPnL  float64 `json:"realized_pnl"`
	OpenCount    int     `json:"open_positions"`
	OpenNotional float64 `json:"open_notional"`
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:10]
}

package strategy

import (
	"papertrader/internal/signals"
)

// Side of a proposed trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order types a strategy may request.
const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// Decision is a proposed trade produced by a strategy, prior to risk gating
// and execution. It is consumed immediately and never persisted.
type Decision struct {
	Symbol            string
	StrategyName      string
	Side              Side
	SizePct           float64 // fraction of account equity, e.g. 0.001 = 0.1%
	OrderType         string
	LimitPrice        float64 // only meaningful for limit orders
	TakeProfitPct     float64 // +0.003 = +0.3% from entry
	StopLossPct       float64 // 0.005 = 0.5% below entry for longs
	TargetDurationSec int
	Reason            string
}

// Strategy evaluates composite signals into trade proposals. Implementations
// hold immutable config only; OnNewSignal is a pure evaluation of the signal
// against that config and needs no cross-call memory.
type Strategy interface {
	Name() string
	// OnNewSignal returns a Decision or nil when the strategy passes.
	// Any returned Decision has SizePct > 0.
	OnNewSignal(sig signals.Composite) *Decision
}

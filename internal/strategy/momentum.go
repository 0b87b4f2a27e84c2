package strategy

import (
	"fmt"
	"math"

	"papertrader/internal/signals"
)

// MomentumConfig tunes the momentum scalper.
type MomentumConfig struct {
	MaxRSIForLong     float64
	MinRSIForShort    float64
	SizePct           float64
	TakeProfitPct     float64
	StopLossPct       float64
	TargetDurationSec int
}

// DefaultMomentumConfig mimics a short-hold scalp: 0.1% size, 0.3% TP, 0.5% SL.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		MaxRSIForLong:     70,
		MinRSIForShort:    30,
		SizePct:           0.001,
		TakeProfitPct:     0.003,
		StopLossPct:       0.005,
		TargetDurationSec: 300,
	}
}

// Momentum follows the composite direction, gated by RSI so it does not chase
// already-exhausted moves. It skips quiet regimes entirely.
type Momentum struct {
	cfg MomentumConfig
}

func NewMomentum(cfg MomentumConfig) *Momentum {
	return &Momentum{cfg: cfg}
}

func (s *Momentum) Name() string { return "momentum_scalper" }

func (s *Momentum) OnNewSignal(sig signals.Composite) *Decision {
	q := sig.Quant
	if q.Regime == signals.RegimeLowVol {
		return nil
	}
	if math.IsNaN(q.RSI) {
		return nil
	}

	var side Side
	switch {
	case sig.Direction == signals.DirectionLong && q.RSI <= s.cfg.MaxRSIForLong:
		side = SideBuy
	case sig.Direction == signals.DirectionShort && q.RSI >= s.cfg.MinRSIForShort:
		side = SideSell
	default:
		return nil
	}

	return &Decision{
		Symbol:            sig.Symbol,
		StrategyName:      s.Name(),
		Side:              side,
		SizePct:           s.cfg.SizePct,
		OrderType:         OrderTypeMarket,
		TakeProfitPct:     s.cfg.TakeProfitPct,
		StopLossPct:       s.cfg.StopLossPct,
		TargetDurationSec: s.cfg.TargetDurationSec,
		Reason: fmt.Sprintf("momentum: direction=%s confidence=%.2f rsi=%.1f regime=%s",
			sig.Direction, sig.Confidence, q.RSI, q.Regime),
	}
}

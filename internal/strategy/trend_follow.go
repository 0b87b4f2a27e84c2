package strategy

import (
	"fmt"
	"math"

	"papertrader/internal/signals"
)

// TrendFollowConfig tunes the EMA/SMA trend follower.
type TrendFollowConfig struct {
	RSILongMin        float64
	RSILongMax        float64
	RSIShortMin       float64
	RSIShortMax       float64
	SizePct           float64
	TakeProfitPct     float64
	StopLossPct       float64
	TargetDurationSec int
}

func DefaultTrendFollowConfig() TrendFollowConfig {
	return TrendFollowConfig{
		RSILongMin:        50,
		RSILongMax:        70,
		RSIShortMin:       30,
		RSIShortMax:       50,
		SizePct:           0.001,
		TakeProfitPct:     0.004,
		StopLossPct:       0.006,
		TargetDurationSec: 900,
	}
}

// TrendFollow buys when EMA runs above SMA with RSI in the mid-upper band,
// and sells the mirror case for a downtrend.
type TrendFollow struct {
	cfg TrendFollowConfig
}

func NewTrendFollow(cfg TrendFollowConfig) *TrendFollow {
	return &TrendFollow{cfg: cfg}
}

func (s *TrendFollow) Name() string { return "trend_follow" }

func (s *TrendFollow) OnNewSignal(sig signals.Composite) *Decision {
	q := sig.Quant
	if math.IsNaN(q.EMA) || math.IsNaN(q.SMA) || math.IsNaN(q.RSI) {
		return nil
	}

	var side Side
	switch {
	case q.EMA > q.SMA && q.RSI > s.cfg.RSILongMin && q.RSI < s.cfg.RSILongMax:
		side = SideBuy
	case q.EMA < q.SMA && q.RSI > s.cfg.RSIShortMin && q.RSI < s.cfg.RSIShortMax:
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
		Reason: fmt.Sprintf("trend_follow: ema=%.4f sma=%.4f rsi=%.2f direction=%s",
			q.EMA, q.SMA, q.RSI, sig.Direction),
	}
}

package strategy

import (
	"fmt"
	"math"

	"papertrader/internal/signals"
)

// MeanReversionConfig tunes the mean-reversion scalper.
type MeanReversionConfig struct {
	OverboughtRSI     float64
	OversoldRSI       float64
	SizePct           float64
	TakeProfitPct     float64
	StopLossPct       float64
	TargetDurationSec int
}

func DefaultMeanReversionConfig() MeanReversionConfig {
	return MeanReversionConfig{
		OverboughtRSI:     70,
		OversoldRSI:       30,
		SizePct:           0.001,
		TakeProfitPct:     0.002,
		StopLossPct:       0.004,
		TargetDurationSec: 600,
	}
}

// MeanReversion fades RSI extremes: sell overbought, buy oversold. It only
// trades regimes with enough movement to snap back.
type MeanReversion struct {
	cfg MeanReversionConfig
}

func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
	return &MeanReversion{cfg: cfg}
}

func (s *MeanReversion) Name() string { return "mean_reversion_scalper" }

func (s *MeanReversion) OnNewSignal(sig signals.Composite) *Decision {
	q := sig.Quant
	if q.Regime != signals.RegimeNormal && q.Regime != signals.RegimeHighVol {
		return nil
	}
	if math.IsNaN(q.RSI) {
		return nil
	}

	var side Side
	switch {
	case q.RSI >= s.cfg.OverboughtRSI:
		side = SideSell
	case q.RSI <= s.cfg.OversoldRSI:
		side = SideBuy
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
		Reason: fmt.Sprintf("mean_reversion: rsi=%.1f regime=%s confidence=%.2f",
			q.RSI, q.Regime, sig.Confidence),
	}
}

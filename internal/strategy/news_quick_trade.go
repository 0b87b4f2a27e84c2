package strategy

import (
	"fmt"
	"math"

	"papertrader/internal/signals"
)

// NewsQuickTradeConfig tunes the news-driven quick trade.
type NewsQuickTradeConfig struct {
	MinImpact         float64
	MinSentimentAbs   float64
	RequireHighVol    bool // only trade when regime is high_vol
	SizePct           float64
	TakeProfitPct     float64
	StopLossPct       float64
	TargetDurationSec int
}

func DefaultNewsQuickTradeConfig() NewsQuickTradeConfig {
	return NewsQuickTradeConfig{
		MinImpact:         0.1,
		MinSentimentAbs:   0.003,
		SizePct:           0.005,
		TakeProfitPct:     0.0025,
		StopLossPct:       0.004,
		TargetDurationSec: 300,
	}
}

// NewsQuickTrade reacts to impactful news sentiment with a short-lived trade
// whose side follows the sentiment sign.
type NewsQuickTrade struct {
	cfg NewsQuickTradeConfig
}

func NewNewsQuickTrade(cfg NewsQuickTradeConfig) *NewsQuickTrade {
	return &NewsQuickTrade{cfg: cfg}
}

func (s *NewsQuickTrade) Name() string { return "news_quick_trade" }

func (s *NewsQuickTrade) OnNewSignal(sig signals.Composite) *Decision {
	// Flat composite direction means the blended view is noise; stand down.
	if sig.Direction == signals.DirectionFlat {
		return nil
	}
	if s.cfg.RequireHighVol && sig.Quant.Regime != signals.RegimeHighVol {
		return nil
	}

	nlp := sig.NLP
	if nlp.ImpactScore < s.cfg.MinImpact {
		return nil
	}
	if math.Abs(nlp.Sentiment) < s.cfg.MinSentimentAbs {
		return nil
	}

	side := SideBuy
	if nlp.Sentiment < 0 {
		side = SideSell
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
		Reason: fmt.Sprintf("news_quick_trade: sentiment=%.2f impact=%.2f",
			nlp.Sentiment, nlp.ImpactScore),
	}
}

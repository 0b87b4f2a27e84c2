package backtest

import (
	"testing"
	"time"

	"papertrader/internal/broker"
	"papertrader/internal/risk"
	"papertrader/internal/signals"
	"papertrader/internal/strategy"
)

func risingBars(n int, start, step float64) []signals.Bar {
	ts := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	bars := make([]signals.Bar, 0, n)
	price := start
	for i := 0; i < n; i++ {
		open := price
		price += step
		bars = append(bars, signals.Bar{
			Ts:     ts.Add(time.Duration(i) * time.Minute),
			Open:   open,
			High:   price + step/2,
			Low:    open - step/2,
			Close:  price,
			Volume: 1000,
		})
	}
	return bars
}

func testManager(t *testing.T) *strategy.Manager {
	t.Helper()
	m, err := strategy.NewManager(nil, strategy.Overrides{})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestRunRequiresBars(t *testing.T) {
	cfg := Config{Symbol: "AAPL", RiskConfig: risk.DefaultConfig()}
	if _, err := Run(cfg, testManager(t), nil, nil); err == nil {
		t.Error("expected error for empty bar slice")
	}
}

func TestRunProducesTradesAndCurve(t *testing.T) {
	cfg := Config{
		Symbol:        "AAPL",
		InitialEquity: 10000,
		Window:        20,
		RiskConfig:    risk.DefaultConfig(),
		BrokerConfig:  broker.Config{CommissionPct: 0.0005, SlippagePct: 0},
		News:          signals.NLP{Entity: "AAPL", Sentiment: 0.6, ImpactScore: 0.8},
	}

	bars := risingBars(60, 100, 0.1)
	res, err := Run(cfg, testManager(t), bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Bars != 60 || len(res.EquityCurve) != 60 {
		t.Errorf("bars = %d, curve = %d", res.Bars, len(res.EquityCurve))
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected at least one trade")
	}
	if res.FinalEquity != cfg.InitialEquity+res.TotalPnL {
		t.Errorf("final equity %f inconsistent with pnl %f", res.FinalEquity, res.TotalPnL)
	}
	if res.MaxDrawdownPct < 0 {
		t.Errorf("max drawdown = %f", res.MaxDrawdownPct)
	}
	if res.WinRate < 0 || res.WinRate > 100 {
		t.Errorf("win rate = %f", res.WinRate)
	}
}

func TestRunLeavesNoOpenPositions(t *testing.T) {
	cfg := Config{
		Symbol:        "AAPL",
		InitialEquity: 10000,
		Window:        20,
		RiskConfig:    risk.DefaultConfig(),
		BrokerConfig:  broker.Config{},
		News:          signals.NLP{Entity: "AAPL", Sentiment: 0.6, ImpactScore: 0.8},
	}

	res, err := Run(cfg, testManager(t), risingBars(30, 100, 0.1), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Every trade that opened was also closed, at latest by the final
	// force-close.
	for _, trade := range res.Trades {
		if trade.ClosedAt.IsZero() {
			t.Errorf("trade %s has no close timestamp", trade.TradeID)
		}
	}
	last := res.EquityCurve[len(res.EquityCurve)-1]
	if last.Equity != res.FinalEquity {
		t.Errorf("curve end %f != final equity %f", last.Equity, res.FinalEquity)
	}
}

func TestRunWarmupOnlyNoTrades(t *testing.T) {
	cfg := Config{
		Symbol:        "AAPL",
		InitialEquity: 10000,
		Window:        20,
		RiskConfig:    risk.DefaultConfig(),
		News:          signals.NLP{Entity: "AAPL", Sentiment: 0.6, ImpactScore: 0.8},
	}

	res, err := Run(cfg, testManager(t), risingBars(10, 100, 0.1), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Errorf("trades during warm-up = %d, want 0", len(res.Trades))
	}
	if res.TotalPnL != 0 {
		t.Errorf("pnl = %f, want 0", res.TotalPnL)
	}
}

package broker

import (
	"math"
	"sync"
	"testing"

	"papertrader/internal/strategy"
	"papertrader/internal/tradelog"
)

func buyDecision(symbol string, sizePct, tpPct, slPct float64) *strategy.Decision {
	return &strategy.Decision{
		Symbol:        symbol,
		StrategyName:  "momentum_scalper",
		Side:          strategy.SideBuy,
		SizePct:       sizePct,
		OrderType:     strategy.OrderTypeMarket,
		TakeProfitPct: tpPct,
		StopLossPct:   slPct,
		Reason:        "test",
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExecuteDecisionOpensPosition(t *testing.T) {
	cfg := Config{CommissionPct: 0.0005, SlippagePct: 0}
	b := NewPaper("acct-1", 10000, cfg, nil)

	order, pos, err := b.ExecuteDecision(buyDecision("AAPL", 0.01, 0.01, 0.005), 100)
	if err != nil {
		t.Fatalf("ExecuteDecision: %v", err)
	}
	if order.Status != OrderStatusFilled {
		t.Errorf("order status = %s", order.Status)
	}
	if !approx(pos.Qty, 1.0) {
		t.Errorf("qty = %f, want 1", pos.Qty)
	}
	if pos.Side != PositionLong {
		t.Errorf("side = %s, want long", pos.Side)
	}
	if pos.TakeProfit == nil || !approx(*pos.TakeProfit, 101) {
		t.Errorf("take profit = %v, want 101", pos.TakeProfit)
	}
	if pos.StopLoss == nil || !approx(*pos.StopLoss, 99.5) {
		t.Errorf("stop loss = %v, want 99.5", pos.StopLoss)
	}

	// Entry commission comes off the balance immediately.
	sum := b.Summary()
	if !approx(sum.Balance, 10000-100*0.0005) {
		t.Errorf("balance = %f", sum.Balance)
	}
	if !approx(sum.Equity, sum.Balance) {
		t.Errorf("equity %f != balance %f", sum.Equity, sum.Balance)
	}
	if sum.OpenCount != 1 || !approx(sum.OpenNotional, 100) {
		t.Errorf("summary = %+v", sum)
	}
}

func TestExecuteDecisionSlippageAgainstTrader(t *testing.T) {
	cfg := Config{SlippagePct: 0.001}
	b := NewPaper("acct-1", 10000, cfg, nil)

	_, long, err := b.ExecuteDecision(buyDecision("AAPL", 0.01, 0, 0), 100)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if !approx(long.EntryPrice, 100.1) {
		t.Errorf("long fill = %f, want 100.1", long.EntryPrice)
	}

	sell := buyDecision("MSFT", 0.01, 0, 0)
	sell.Side = strategy.SideSell
	_, short, err := b.ExecuteDecision(sell, 100)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if short.Side != PositionShort || !approx(short.EntryPrice, 99.9) {
		t.Errorf("short fill = %+v", short)
	}
	if long.TakeProfit != nil || long.StopLoss != nil {
		t.Errorf("zero pct offsets should leave TP/SL unset: %+v", long)
	}
}

func TestExecuteDecisionRejectsNonPositiveNotional(t *testing.T) {
	b := NewPaper("acct-1", 10000, DefaultConfig(), nil)
	if _, _, err := b.ExecuteDecision(buyDecision("AAPL", 0, 0, 0), 100); err == nil {
		t.Error("expected error for zero size_pct")
	}
}

type captureSink struct {
	records []tradelog.Record
}

func (c *captureSink) Append(rec tradelog.Record) { c.records = append(c.records, rec) }

func TestTakeProfitCloseRealizesPnL(t *testing.T) {
	sink := &captureSink{}
	cfg := Config{CommissionPct: 0.0005, SlippagePct: 0}
	b := NewPaper("acct-1", 10000, cfg, sink)

	_, pos, err := b.ExecuteDecision(buyDecision("AAPL", 0.01, 0.01, 0.005), 100)
	if err != nil {
		t.Fatalf("ExecuteDecision: %v", err)
	}

	closed := b.CheckTPSL(map[string]float64{"AAPL": 101})
	got, ok := closed[pos.ID]
	if !ok {
		t.Fatalf("position not closed: %v", closed)
	}

	// Gross pnl is one dollar on one share; commission on the 100 entry
	// notional is charged at both open and close.
	commission := 100 * 0.0005
	wantNet := (101.0-100.0)*pos.Qty - commission
	if !approx(got.Position.RealizedPnL, wantNet) {
		t.Errorf("position pnl = %f, want %f", got.Position.RealizedPnL, wantNet)
	}
	if !approx(got.Notional, 100) {
		t.Errorf("notional = %f, want 100", got.Notional)
	}
	if sum := b.Summary(); !approx(sum.RealizedPnL, wantNet-commission) {
		t.Errorf("account realized pnl = %f, want %f", sum.RealizedPnL, wantNet-commission)
	}

	if len(sink.records) != 1 {
		t.Fatalf("trade log records = %d, want 1", len(sink.records))
	}
	rec := sink.records[0]
	if rec.Reason != "take_profit" || rec.Strategy != "momentum_scalper" {
		t.Errorf("record = %+v", rec)
	}
	if !approx(rec.ExitPrice, 101) || !approx(rec.PnL, wantNet) {
		t.Errorf("record prices = %+v", rec)
	}
}

func TestTPCheckedBeforeSL(t *testing.T) {
	cfg := Config{SlippagePct: 0}
	b := NewPaper("acct-1", 10000, cfg, nil)

	// Absurd config where one price satisfies both levels; TP must win.
	d := buyDecision("AAPL", 0.01, -0.05, -0.05)
	_, pos, err := b.ExecuteDecision(d, 100)
	if err != nil {
		t.Fatalf("ExecuteDecision: %v", err)
	}

	sink := &captureSink{}
	b.sink = sink
	closed := b.CheckTPSL(map[string]float64{"AAPL": 95})
	if _, ok := closed[pos.ID]; !ok {
		t.Fatalf("position not closed")
	}
	if sink.records[0].Reason != "take_profit" {
		t.Errorf("close reason = %s, want take_profit", sink.records[0].Reason)
	}
}

func TestStopLossShortSide(t *testing.T) {
	cfg := Config{SlippagePct: 0}
	b := NewPaper("acct-1", 10000, cfg, nil)

	d := buyDecision("AAPL", 0.01, 0.01, 0.01)
	d.Side = strategy.SideSell
	_, pos, err := b.ExecuteDecision(d, 100)
	if err != nil {
		t.Fatalf("ExecuteDecision: %v", err)
	}
	if !approx(*pos.TakeProfit, 99) || !approx(*pos.StopLoss, 101) {
		t.Fatalf("short levels = tp %v sl %v", *pos.TakeProfit, *pos.StopLoss)
	}

	// Price rallies through the short's stop.
	closed := b.CheckTPSL(map[string]float64{"AAPL": 101.5})
	got, ok := closed[pos.ID]
	if !ok {
		t.Fatalf("short not stopped out")
	}
	if got.Position.RealizedPnL >= 0 {
		t.Errorf("stopped short pnl = %f, want negative", got.Position.RealizedPnL)
	}
}

func TestCheckTPSLIgnoresUnknownPrices(t *testing.T) {
	b := NewPaper("acct-1", 10000, DefaultConfig(), nil)
	if _, _, err := b.ExecuteDecision(buyDecision("AAPL", 0.01, 0.01, 0.005), 100); err != nil {
		t.Fatalf("ExecuteDecision: %v", err)
	}

	closed := b.CheckTPSL(map[string]float64{"MSFT": 500})
	if len(closed) != 0 {
		t.Errorf("closed %d positions, want 0", len(closed))
	}
	if b.OpenPositionCount() != 1 {
		t.Errorf("open count = %d, want 1", b.OpenPositionCount())
	}
}

func TestClosePositionUnknownID(t *testing.T) {
	b := NewPaper("acct-1", 10000, DefaultConfig(), nil)
	if _, _, err := b.ClosePosition("pos-missing", 100); err == nil {
		t.Error("expected error for unknown position id")
	}
}

func TestForceCloseAll(t *testing.T) {
	cfg := Config{SlippagePct: 0}
	b := NewPaper("acct-1", 10000, cfg, nil)

	if _, _, err := b.ExecuteDecision(buyDecision("AAPL", 0.01, 0, 0), 100); err != nil {
		t.Fatal(err)
	}
	if _, _, err := b.ExecuteDecision(buyDecision("MSFT", 0.01, 0, 0), 200); err != nil {
		t.Fatal(err)
	}

	closed := b.ForceCloseAll(map[string]float64{"AAPL": 100, "MSFT": 200})
	if len(closed) != 2 {
		t.Fatalf("closed %d, want 2", len(closed))
	}
	if b.OpenPositionCount() != 0 {
		t.Errorf("open count = %d, want 0", b.OpenPositionCount())
	}
}

func TestOpenNotionalBySymbol(t *testing.T) {
	cfg := Config{SlippagePct: 0}
	b := NewPaper("acct-1", 10000, cfg, nil)

	if _, _, err := b.ExecuteDecision(buyDecision("AAPL", 0.01, 0, 0), 100); err != nil {
		t.Fatal(err)
	}
	by := b.OpenNotionalBySymbol()
	if !approx(by["AAPL"], 100) {
		t.Errorf("AAPL notional = %f, want 100", by["AAPL"])
	}
}

func TestConcurrentTradingAndSnapshots(t *testing.T) {
	cfg := Config{SlippagePct: 0}
	b := NewPaper("acct-1", 10000, cfg, nil)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			// tp_pct -0.01 triggers at the entry price, so every position
			// closes on the next sweep.
			if _, _, err := b.ExecuteDecision(buyDecision("AAPL", 0.001, -0.01, 0), 100); err != nil {
				t.Errorf("ExecuteDecision: %v", err)
				return
			}
			b.CheckTPSL(map[string]float64{"AAPL": 100})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			b.Summary()
			b.Positions()
			b.Orders()
			b.OpenNotionalBySymbol()
			b.Equity()
			b.OpenPositionCount()
		}
	}()

	wg.Wait()

	if got := b.OpenPositionCount(); got != 0 {
		t.Errorf("open count = %d, want 0", got)
	}
}

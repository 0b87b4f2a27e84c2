package main

import (
	"context"
	"log"
	"path/filepath"
	"testing"
	"time"

	"papertrader/internal/broker"
	"papertrader/internal/engine"
	"papertrader/internal/events"
	"papertrader/internal/killswitch"
	"papertrader/internal/market"
	"papertrader/internal/monitor"
	"papertrader/internal/persistence"
	"papertrader/internal/risk"
	"papertrader/internal/signals"
	"papertrader/internal/strategy"
	"papertrader/pkg/db"
)

// TestFullWorkflow drives the whole pipeline over the bus: bars in, decisions
// through risk, fills in the paper broker, closed trades in the database.
func TestFullWorkflow(t *testing.T) {
	log.Println("🧪 Starting Full Workflow Test...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup Database
	database, err := db.NewInMemory()
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	log.Println("✅ Database initialized")

	bus := events.NewBus()
	kill := killswitch.New(filepath.Join(t.TempDir(), "KILL"))

	strategies, err := strategy.NewManager(strategy.DefaultConfigs(), strategy.Overrides{})
	if err != nil {
		t.Fatalf("Failed to create strategies: %v", err)
	}
	log.Println("✅ Strategies initialized")

	batchWriter := persistence.NewBatchWriter(database.DB, 10, 50*time.Millisecond)
	brk := broker.NewPaper("acct-workflow", 10000, broker.Config{}, batchWriter)
	riskMgr := risk.NewManager(risk.DefaultConfig())
	metrics := monitor.NewMetrics()

	eng := engine.New(engine.DefaultConfig(), bus, strategies, riskMgr, brk, kill, metrics)
	go eng.Run(ctx)
	log.Println("✅ Engine running")

	// Bullish headline so the news strategy has something to act on.
	bus.Publish(events.EventNews, signals.NLP{
		Entity:      "AAPL",
		Sentiment:   0.6,
		ImpactScore: 0.8,
	})
	time.Sleep(50 * time.Millisecond)

	feedBars(bus, "AAPL", 30, 100)

	t.Run("OpensPosition", func(t *testing.T) {
		waitFor(t, 2*time.Second, func() bool {
			return brk.OpenPositionCount() == 1
		}, "expected one open position")
		log.Println("✅ Position opened")

		if snap := riskMgr.Snapshot(); snap.OpenTrades != 1 {
			t.Errorf("risk OpenTrades = %d, want 1", snap.OpenTrades)
		}
	})

	t.Run("KillSwitchBlocksNewTrades", func(t *testing.T) {
		if err := kill.Engage("integration test"); err != nil {
			t.Fatalf("Engage failed: %v", err)
		}

		feedBars(bus, "MSFT", 30, 200)
		time.Sleep(300 * time.Millisecond)

		if got := brk.OpenPositionCount(); got != 1 {
			t.Errorf("open positions = %d, want 1 while kill switch engaged", got)
		}
		log.Println("✅ Kill switch held")

		if err := kill.Resume(); err != nil {
			t.Fatalf("Resume failed: %v", err)
		}
	})

	t.Run("ShutdownFlushesTrades", func(t *testing.T) {
		cancel()
		select {
		case <-eng.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("engine did not stop after cancel")
		}

		eng.ForceCloseAll(eng.LastPrices())
		batchWriter.Close()

		if got := brk.OpenPositionCount(); got != 0 {
			t.Errorf("open positions after force close = %d, want 0", got)
		}
		if snap := riskMgr.Snapshot(); snap.OpenTrades != 0 {
			t.Errorf("risk OpenTrades after force close = %d, want 0", snap.OpenTrades)
		}

		trades, err := db.NewQueries(database.DB).ListTrades(context.Background(), "acct-workflow", 100)
		if err != nil {
			t.Fatalf("ListTrades failed: %v", err)
		}
		if len(trades) == 0 {
			t.Error("expected closed trades persisted to the database")
		}
		log.Printf("✅ %d trades persisted", len(trades))
	})
}

func feedBars(bus *events.Bus, symbol string, n int, start float64) {
	price := start
	ts := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		open := price
		price += 0.1
		bus.Publish(events.EventBar, market.Bar{
			Symbol: symbol,
			Bar: signals.Bar{
				Ts:     ts.Add(time.Duration(i) * time.Minute),
				Open:   open,
				High:   price + 0.02,
				Low:    open - 0.02,
				Close:  price,
				Volume: 1000,
			},
		})
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

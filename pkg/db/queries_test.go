package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"papertrader/internal/tradelog"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := NewInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := ApplyMigrations(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

func insertTrade(t *testing.T, d *Database, id string, pnl float64, closedAt time.Time) {
	t.Helper()
	sink := tradelog.NewDB(d.DB)
	sink.Append(tradelog.Record{
		TradeID:     id,
		AccountID:   "acct-1",
		Symbol:      "AAPL",
		Strategy:    "momentum_scalper",
		Side:        "long",
		Qty:         0.5,
		EntryPrice:  150,
		ExitPrice:   150 + pnl/0.5,
		PnL:         pnl,
		PnLPct:      pnl / 75 * 100,
		Reason:      "take_profit",
		OpenedAt:    closedAt.Add(-5 * time.Minute),
		ClosedAt:    closedAt,
		DurationSec: 300,
	})
}

func TestListTradesNewestFirst(t *testing.T) {
	d := openTestDB(t)
	base := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	insertTrade(t, d, "t1", 1.0, base)
	insertTrade(t, d, "t2", -0.5, base.Add(time.Minute))
	insertTrade(t, d, "t3", 2.0, base.Add(2*time.Minute))

	q := NewQueries(d.DB)
	trades, err := q.ListTrades(context.Background(), "acct-1", 2)
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}
	if trades[0].ID != "t3" || trades[1].ID != "t2" {
		t.Errorf("order = %s, %s", trades[0].ID, trades[1].ID)
	}
	if trades[0].Strategy != "momentum_scalper" || trades[0].Reason != "take_profit" {
		t.Errorf("trade = %+v", trades[0])
	}
}

func TestListTradesIsolatesAccounts(t *testing.T) {
	d := openTestDB(t)
	insertTrade(t, d, "t1", 1.0, time.Now().UTC())

	q := NewQueries(d.DB)
	trades, err := q.ListTrades(context.Background(), "someone-else", 10)
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("got %d trades for foreign account", len(trades))
	}
}

func TestGetTradeNotFound(t *testing.T) {
	d := openTestDB(t)
	q := NewQueries(d.DB)
	if _, err := q.GetTrade(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetTradeStats(t *testing.T) {
	d := openTestDB(t)
	base := time.Now().UTC()
	insertTrade(t, d, "t1", 2.0, base)
	insertTrade(t, d, "t2", -1.0, base.Add(time.Minute))
	insertTrade(t, d, "t3", 3.0, base.Add(2*time.Minute))

	q := NewQueries(d.DB)
	stats, err := q.GetTradeStats(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetTradeStats: %v", err)
	}
	if stats.Count != 3 || stats.WinCount != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalPnL != 4.0 {
		t.Errorf("total pnl = %f, want 4", stats.TotalPnL)
	}
}

func TestAccountSnapshots(t *testing.T) {
	d := openTestDB(t)
	q := NewQueries(d.DB)
	if err := q.InsertAccountSnapshot(context.Background(), "acct-1", 9990, 9990, -10, 1, 50); err != nil {
		t.Fatalf("InsertAccountSnapshot: %v", err)
	}
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	d := openTestDB(t)
	if err := ApplyMigrations(d); err != nil {
		t.Fatalf("second migration: %v", err)
	}
}

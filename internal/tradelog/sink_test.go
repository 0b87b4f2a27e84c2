package tradelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func sampleRecord(id string) Record {
	opened := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	closed := opened.Add(5 * time.Minute)
	return Record{
		TradeID:     id,
		AccountID:   "acct-1",
		Symbol:      "AAPL",
		Strategy:    "momentum_scalper",
		Side:        "buy",
		Qty:         0.2,
		EntryPrice:  150,
		ExitPrice:   150.45,
		PnL:         0.09,
		PnLPct:      0.3,
		Reason:      "take_profit",
		OpenedAt:    opened,
		ClosedAt:    closed,
		DurationSec: 300,
	}
}

func TestJSONLAppendAndLoad(t *testing.T) {
	sink := NewJSONL(t.TempDir())

	sink.Append(sampleRecord("t1"))
	sink.Append(sampleRecord("t2"))
	sink.Append(sampleRecord("t3"))

	rows := sink.Load("acct-1", 2)
	if len(rows) != 2 {
		t.Fatalf("loaded %d rows, want 2", len(rows))
	}
	if rows[0].TradeID != "t2" || rows[1].TradeID != "t3" {
		t.Errorf("rows = %s, %s; want t2, t3", rows[0].TradeID, rows[1].TradeID)
	}
	if rows[1].Symbol != "AAPL" || rows[1].PnLPct != 0.3 {
		t.Errorf("record round-trip lost fields: %+v", rows[1])
	}
}

func TestJSONLSanitizesAccountID(t *testing.T) {
	dir := t.TempDir()
	sink := NewJSONL(dir)

	rec := sampleRecord("t1")
	rec.AccountID = "../evil/acct"
	sink.Append(rec)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file in %s, got %d", dir, len(entries))
	}
	if name := entries[0].Name(); name != ".._evil_acct.jsonl" {
		t.Errorf("file name = %s", name)
	}
}

func TestJSONLSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	sink := NewJSONL(dir)
	sink.Append(sampleRecord("t1"))

	path := filepath.Join(dir, "acct-1.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("not json\n\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()
	sink.Append(sampleRecord("t2"))

	rows := sink.Load("acct-1", 0)
	if len(rows) != 2 {
		t.Fatalf("loaded %d rows, want 2", len(rows))
	}
}

func TestLoadMissingAccountReturnsNil(t *testing.T) {
	sink := NewJSONL(t.TempDir())
	if rows := sink.Load("nobody", 10); rows != nil {
		t.Errorf("rows = %v, want nil", rows)
	}
}

type countingSink struct{ n int }

func (c *countingSink) Append(Record) { c.n++ }

func TestMultiFansOut(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	m := Multi{a, Nop{}, b}

	m.Append(sampleRecord("t1"))
	m.Append(sampleRecord("t2"))

	if a.n != 2 || b.n != 2 {
		t.Errorf("counts = %d, %d; want 2, 2", a.n, b.n)
	}
}

// Package persistence batches trade writes so a burst of closes does not turn
// into a burst of sqlite transactions.
package persistence

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"papertrader/internal/tradelog"
)

// BatchWriter buffers closed-trade records and flushes them to the trades
// table in one transaction. It satisfies tradelog.Sink, so failures are
// logged and absorbed.
type BatchWriter struct {
	db          *sql.DB
	mu          sync.Mutex
	buffer      []tradelog.Record
	maxSize     int
	flushIntval time.Duration
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewBatchWriter starts a writer that flushes at maxSize records or every
// interval, whichever comes first.
func NewBatchWriter(db *sql.DB, maxSize int, interval time.Duration) *BatchWriter {
	if maxSize <= 0 {
		maxSize = 50
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	bw := &BatchWriter{
		db:          db,
		buffer:      make([]tradelog.Record, 0, maxSize),
		maxSize:     maxSize,
		flushIntval: interval,
		done:        make(chan struct{}),
	}

	bw.wg.Add(1)
	go bw.backgroundFlush()

	return bw
}

// Append buffers one record, flushing if the buffer is full.
func (bw *BatchWriter) Append(rec tradelog.Record) {
	bw.mu.Lock()
	bw.buffer = append(bw.buffer, rec)
	shouldFlush := len(bw.buffer) >= bw.maxSize
	bw.mu.Unlock()

	if shouldFlush {
		bw.Flush()
	}
}

// Flush writes all buffered records in one transaction.
func (bw *BatchWriter) Flush() {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return
	}
	batch := bw.buffer
	bw.buffer = make([]tradelog.Record, 0, bw.maxSize)
	bw.mu.Unlock()

	tx, err := bw.db.Begin()
	if err != nil {
		log.Printf("[PERSIST] begin failed, dropping %d trades: %v", len(batch), err)
		return
	}
	stmt, err := tx.Prepare(`
		INSERT INTO trades (
			id, account_id, symbol, strategy, side, qty,
			entry_price, exit_price, pnl, pnl_pct, reason,
			opened_at, closed_at, duration_sec
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		log.Printf("[PERSIST] prepare failed: %v", err)
		return
	}
	defer stmt.Close()

	for _, rec := range batch {
		if _, err := stmt.Exec(
			rec.TradeID, rec.AccountID, rec.Symbol, rec.Strategy, rec.Side, rec.Qty,
			rec.EntryPrice, rec.ExitPrice, rec.PnL, rec.PnLPct, rec.Reason,
			rec.OpenedAt, rec.ClosedAt, rec.DurationSec,
		); err != nil {
			log.Printf("[PERSIST] insert trade %s failed: %v", rec.TradeID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("[PERSIST] commit failed for %d trades: %v", len(batch), err)
	}
}

// Close flushes remaining records and stops the background loop.
func (bw *BatchWriter) Close() {
	close(bw.done)
	bw.wg.Wait()
	bw.Flush()
}

func (bw *BatchWriter) backgroundFlush() {
	defer bw.wg.Done()
	ticker := time.NewTicker(bw.flushIntval)
	defer ticker.Stop()

	for {
		select {
		case <-bw.done:
			return
		case <-ticker.C:
			bw.Flush()
		}
	}
}

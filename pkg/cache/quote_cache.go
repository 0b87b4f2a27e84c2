// Package cache holds the latest market quotes behind a sharded map so the
// feed goroutine and API readers never contend on one lock.
package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

const numShards = 16

// Quote is the last observed bar summary for a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Volume    float64   `json:"volume"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuoteCache is a sharded last-quote store.
type QuoteCache struct {
	shards [numShards]*quoteShard
}

type quoteShard struct {
	mu    sync.RWMutex
	items map[string]Quote
}

func NewQuoteCache() *QuoteCache {
	c := &QuoteCache{}
	for i := 0; i < numShards; i++ {
		c.shards[i] = &quoteShard{items: make(map[string]Quote)}
	}
	return c
}

func (c *QuoteCache) getShard(symbol string) *quoteShard {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return c.shards[h.Sum32()%numShards]
}

// Set stores the latest quote for a symbol, stamping UpdatedAt.
func (c *QuoteCache) Set(q Quote) {
	q.UpdatedAt = time.Now()
	shard := c.getShard(q.Symbol)
	shard.mu.Lock()
	shard.items[q.Symbol] = q
	shard.mu.Unlock()
}

// Get returns the quote for a symbol.
func (c *QuoteCache) Get(symbol string) (Quote, bool) {
	shard := c.getShard(symbol)
	shard.mu.RLock()
	q, ok := shard.items[symbol]
	shard.mu.RUnlock()
	return q, ok
}

// GetWithAge returns the quote and how stale it is.
func (c *QuoteCache) GetWithAge(symbol string) (Quote, time.Duration, bool) {
	q, ok := c.Get(symbol)
	if !ok {
		return Quote{}, 0, false
	}
	return q, time.Since(q.UpdatedAt), true
}

// Snapshot copies all quotes, keyed by symbol.
func (c *QuoteCache) Snapshot() map[string]Quote {
	out := make(map[string]Quote)
	for _, shard := range c.shards {
		shard.mu.RLock()
		for sym, q := range shard.items {
			out[sym] = q
		}
		shard.mu.RUnlock()
	}
	return out
}

// Len counts quotes across all shards.
func (c *QuoteCache) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		total += len(shard.items)
		shard.mu.RUnlock()
	}
	return total
}

// Evict drops quotes older than maxAge and reports how many were removed.
func (c *QuoteCache) Evict(maxAge time.Duration) int {
	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, shard := range c.shards {
		shard.mu.Lock()
		for sym, q := range shard.items {
			if q.UpdatedAt.Before(cutoff) {
				delete(shard.items, sym)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

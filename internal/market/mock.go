package market

import (
	"context"
	"log"
	"math/rand"
	"time"

	"papertrader/internal/events"
	"papertrader/internal/signals"
)

// Bar is one symbol-tagged OHLCV sample published on the bus.
type Bar struct {
	Symbol string `json:"symbol"`
	signals.Bar
}

// MockFeed generates synthetic random-walk bars for local development and
// smoke tests.
type MockFeed struct {
	Bus        *events.Bus
	Symbols    []string
	StartPrice float64
	Step       float64
	Interval   time.Duration

	prices map[string]float64
}

func (m *MockFeed) Start(ctx context.Context) {
	if m.Bus == nil {
		log.Println("mock feed: bus not set")
		return
	}
	if len(m.Symbols) == 0 {
		m.Symbols = []string{"AAPL"}
	}
	if m.StartPrice == 0 {
		m.StartPrice = 100.0
	}
	if m.Step == 0 {
		m.Step = 0.5
	}
	if m.Interval == 0 {
		m.Interval = time.Second
	}
	m.prices = make(map[string]float64, len(m.Symbols))
	for _, sym := range m.Symbols {
		m.prices[sym] = m.StartPrice
	}

	go func() {
		t := time.NewTicker(m.Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				for _, sym := range m.Symbols {
					m.Bus.Publish(events.EventBar, m.nextBar(sym, now))
				}
			}
		}
	}()
}

// nextBar advances the symbol's random walk by one interval.
func (m *MockFeed) nextBar(symbol string, now time.Time) Bar {
	open := m.prices[symbol]
	close := open + (rand.Float64()*2-1)*m.Step
	if close <= 0 {
		close = open
	}
	m.prices[symbol] = close

	high := open
	low := open
	if close > high {
		high = close
	}
	if close < low {
		low = close
	}
	// Wick a little beyond the body.
	high += rand.Float64() * m.Step / 2
	low -= rand.Float64() * m.Step / 2
	if low <= 0 {
		low = close
	}

	return Bar{
		Symbol: symbol,
		Bar: signals.Bar{
			Ts:     now,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: 1000 + rand.Float64()*9000,
		},
	}
}

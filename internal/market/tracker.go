package market

import (
	"context"

	"papertrader/internal/events"
	"papertrader/pkg/cache"
)

// QuoteTracker mirrors bus bars into the quote cache so HTTP readers can see
// the latest prices without touching engine state.
type QuoteTracker struct {
	Bus   *events.Bus
	Cache *cache.QuoteCache
}

// Start consumes bar events until the context is cancelled.
func (t *QuoteTracker) Start(ctx context.Context) {
	if t.Bus == nil || t.Cache == nil {
		return
	}
	bars, unsub := t.Bus.Subscribe(events.EventBar, 256)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-bars:
			if !ok {
				return
			}
			bar, isBar := msg.(Bar)
			if !isBar {
				continue
			}
			t.Cache.Set(cache.Quote{
				Symbol: bar.Symbol,
				Price:  bar.Close,
				High:   bar.High,
				Low:    bar.Low,
				Volume: bar.Volume,
			})
		}
	}
}

package market

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"papertrader/internal/events"
)

// ReplayFeed publishes recorded bars from JSONL files under a day directory,
// one file per symbol, in file order. Speed scales the inter-bar pause; 0
// replays as fast as possible.
type ReplayFeed struct {
	Bus   *events.Bus
	Dir   string
	Speed float64
}

// Start replays the day's files and returns when finished or cancelled.
func (r *ReplayFeed) Start(ctx context.Context) error {
	if r.Bus == nil {
		return fmt.Errorf("replay feed: bus not set")
	}
	files, err := filepath.Glob(filepath.Join(r.Dir, "*.jsonl"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("replay feed: no jsonl files in %s", r.Dir)
	}
	sort.Strings(files)

	pause := time.Duration(0)
	if r.Speed > 0 {
		pause = time.Duration(float64(time.Millisecond) / r.Speed)
	}

	for _, path := range files {
		if err := r.replayFile(ctx, path, pause); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReplayFeed) replayFile(ctx context.Context, path string, pause time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var bar Bar
		if err := json.Unmarshal([]byte(line), &bar); err != nil {
			log.Printf("replay feed: skipping malformed line in %s: %v", path, err)
			continue
		}
		if bar.Symbol == "" {
			// Fall back to the file name, e.g. AAPL.jsonl.
			bar.Symbol = strings.TrimSuffix(filepath.Base(path), ".jsonl")
		}
		r.Bus.Publish(events.EventBar, bar)

		if pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return scanner.Err()
}

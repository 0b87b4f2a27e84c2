package strategy

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategies.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
strategies:
  - name: momentum_scalper
    enabled: false
  - name: news_quick_trade
    enabled: true
    min_confidence: 0.1
    allowed_regimes: [high_vol]
`)

	configs, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if configs["momentum_scalper"].Enabled {
		t.Error("momentum_scalper should be disabled")
	}
	news := configs["news_quick_trade"]
	if !news.Enabled || news.MinConfidence != 0.1 {
		t.Errorf("news_quick_trade = %+v", news)
	}
	if len(news.AllowedRegimes) != 1 || string(news.AllowedRegimes[0]) != "high_vol" {
		t.Errorf("allowed regimes = %v", news.AllowedRegimes)
	}
	// Untouched strategies keep their defaults.
	if !configs["mean_reversion_scalper"].Enabled {
		t.Error("mean_reversion_scalper should keep its default enabled state")
	}
}

func TestLoadConfigFileRejectsUnknowns(t *testing.T) {
	path := writeConfig(t, `
strategies:
  - name: not_a_strategy
`)
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected error for unknown strategy name")
	}

	path = writeConfig(t, `
strategies:
  - name: momentum_scalper
    allowed_regimes: [sideways]
`)
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected error for unknown regime")
	}
}

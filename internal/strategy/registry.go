package strategy

import (
	"fmt"
	"sort"

	"papertrader/internal/signals"
)

// Config gates one named strategy.
type Config struct {
	Name           string
	Enabled        bool
	MinConfidence  float64
	AllowedRegimes []signals.Regime // empty means any regime
}

// Overrides force strategies on or off by name; both lists are validated
// against the registered strategy set so a typo fails loudly at startup
// instead of silently trading without the intended strategy.
type Overrides struct {
	Enabled  []string // when non-nil, only these strategies stay enabled
	Disabled []string // always disabled, applied after Enabled
}

// builders maps strategy names to their default constructors.
var builders = map[string]func() Strategy{
	"momentum_scalper":       func() Strategy { return NewMomentum(DefaultMomentumConfig()) },
	"mean_reversion_scalper": func() Strategy { return NewMeanReversion(DefaultMeanReversionConfig()) },
	"news_quick_trade":       func() Strategy { return NewNewsQuickTrade(DefaultNewsQuickTradeConfig()) },
	"trend_follow":           func() Strategy { return NewTrendFollow(DefaultTrendFollowConfig()) },
}

// KnownStrategies lists the registered strategy names, sorted.
func KnownStrategies() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultConfigs enables the scalpers for active regimes and leaves the news
// strategy open to any regime.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		"momentum_scalper": {
			Name:           "momentum_scalper",
			Enabled:        true,
			MinConfidence:  0.2,
			AllowedRegimes: []signals.Regime{signals.RegimeNormal, signals.RegimeHighVol},
		},
		"mean_reversion_scalper": {
			Name:           "mean_reversion_scalper",
			Enabled:        true,
			MinConfidence:  0.15,
			AllowedRegimes: []signals.Regime{signals.RegimeNormal, signals.RegimeHighVol},
		},
		"news_quick_trade": {
			Name:          "news_quick_trade",
			Enabled:       true,
			MinConfidence: 0,
		},
		"trend_follow": {
			Name:          "trend_follow",
			Enabled:       false,
			MinConfidence: 0.2,
		},
	}
}

// Manager holds the configured strategies and picks the ones eligible for a
// given signal.
type Manager struct {
	configs    map[string]Config
	strategies map[string]Strategy
}

// NewManager instantiates the configured strategies after applying overrides.
// Unknown strategy names in configs or overrides are an error.
func NewManager(configs map[string]Config, ov Overrides) (*Manager, error) {
	if configs == nil {
		configs = DefaultConfigs()
	}
	for name := range configs {
		if _, ok := builders[name]; !ok {
			return nil, fmt.Errorf("unknown strategy %q in config", name)
		}
	}

	resolved := make(map[string]Config, len(configs))
	for name, cfg := range configs {
		cfg.Name = name
		resolved[name] = cfg
	}

	if ov.Enabled != nil {
		allow := make(map[string]bool, len(ov.Enabled))
		for _, name := range ov.Enabled {
			if _, ok := builders[name]; !ok {
				return nil, fmt.Errorf("unknown strategy %q in enabled override", name)
			}
			allow[name] = true
		}
		for name, cfg := range resolved {
			cfg.Enabled = allow[name]
			resolved[name] = cfg
		}
	}
	for _, name := range ov.Disabled {
		if _, ok := builders[name]; !ok {
			return nil, fmt.Errorf("unknown strategy %q in disabled override", name)
		}
		if cfg, ok := resolved[name]; ok {
			cfg.Enabled = false
			resolved[name] = cfg
		}
	}

	m := &Manager{
		configs:    resolved,
		strategies: make(map[string]Strategy),
	}
	for name, cfg := range resolved {
		if !cfg.Enabled {
			continue
		}
		m.strategies[name] = builders[name]()
	}
	return m, nil
}

// SelectForSignal returns the strategies allowed for this signal, filtered by
// confidence and regime, in name order for deterministic dispatch.
func (m *Manager) SelectForSignal(sig signals.Composite) []Strategy {
	names := make([]string, 0, len(m.strategies))
	for name := range m.strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Strategy
	for _, name := range names {
		cfg := m.configs[name]
		if sig.Confidence < cfg.MinConfidence {
			continue
		}
		if len(cfg.AllowedRegimes) > 0 && !regimeAllowed(cfg.AllowedRegimes, sig.Quant.Regime) {
			continue
		}
		out = append(out, m.strategies[name])
	}
	return out
}

// Configs returns a copy of the resolved strategy configs.
func (m *Manager) Configs() map[string]Config {
	out := make(map[string]Config, len(m.configs))
	for name, cfg := range m.configs {
		out[name] = cfg
	}
	return out
}

func regimeAllowed(allowed []signals.Regime, regime signals.Regime) bool {
	for _, r := range allowed {
		if r == regime {
			return true
		}
	}
	return false
}

package strategy

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"papertrader/internal/signals"
)

// fileConfig is one strategy entry in YAML.
type fileConfig struct {
	Name           string   `yaml:"name"`
	Enabled        bool     `yaml:"enabled"`
	MinConfidence  float64  `yaml:"min_confidence"`
	AllowedRegimes []string `yaml:"allowed_regimes"`
}

// configFile is the top-level YAML structure.
type configFile struct {
	Strategies []fileConfig `yaml:"strategies"`
}

// LoadConfigFile reads strategy configs from a YAML file. Entries naming an
// unknown strategy or regime are an error.
func LoadConfigFile(path string) (map[string]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse strategy config %s: %w", path, err)
	}

	out := DefaultConfigs()
	for _, fc := range file.Strategies {
		if _, ok := builders[fc.Name]; !ok {
			return nil, fmt.Errorf("unknown strategy %q in %s", fc.Name, path)
		}
		cfg := Config{
			Name:          fc.Name,
			Enabled:       fc.Enabled,
			MinConfidence: fc.MinConfidence,
		}
		for _, raw := range fc.AllowedRegimes {
			regime := signals.Regime(strings.TrimSpace(raw))
			switch regime {
			case signals.RegimeLowVol, signals.RegimeNormal, signals.RegimeHighVol:
				cfg.AllowedRegimes = append(cfg.AllowedRegimes, regime)
			default:
				return nil, fmt.Errorf("unknown regime %q for strategy %s in %s", raw, fc.Name, path)
			}
		}
		out[fc.Name] = cfg
	}
	return out, nil
}

// SyncConfigToDB upserts the resolved strategy configs into the database so
// the dashboard can read what is actually running.
func SyncConfigToDB(db *sql.DB, configs map[string]Config) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO strategy_configs (name, enabled, min_confidence, allowed_regimes, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			enabled = excluded.enabled,
			min_confidence = excluded.min_confidence,
			allowed_regimes = excluded.allowed_regimes,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, name := range KnownStrategies() {
		cfg, ok := configs[name]
		if !ok {
			continue
		}
		regimes := make([]string, 0, len(cfg.AllowedRegimes))
		for _, r := range cfg.AllowedRegimes {
			regimes = append(regimes, string(r))
		}
		if _, err := stmt.Exec(name, cfg.Enabled, cfg.MinConfidence, strings.Join(regimes, ",")); err != nil {
			return fmt.Errorf("failed to upsert strategy %s: %w", name, err)
		}
	}

	return tx.Commit()
}

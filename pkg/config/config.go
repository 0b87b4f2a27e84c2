package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the paper trader.
type Config struct {
	Port string

	// Account
	AccountID      string
	InitialBalance float64

	// Market data
	Symbols      []string
	UseMockFeed  bool
	MockInterval string // Go duration, e.g. "1s"
	ReplayDir    string // when set, replay this day directory instead of the mock feed
	ReplaySpeed  float64

	// Signals
	QuantWindow int

	// Risk limits
	MaxOpenTrades      int
	MaxExposurePct     float64
	PerSymbolMaxTrades int
	MaxTradeRiskPct    float64
	MaxDailyLossPct    float64

	// Execution costs
	CommissionPct float64
	SlippagePct   float64

	// Strategies
	StrategyConfigPath string
	EnabledStrategies  []string // when non-empty, only these stay enabled
	DisabledStrategies []string

	// Persistence
	DBPath      string
	TradeLogDir string

	// Kill switch
	KillSwitchPath string

	// Auth
	JWTSecret            string
	OperatorUser         string
	OperatorPasswordHash string // bcrypt hash; empty disables login
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		AccountID:            getEnv("ACCOUNT_ID", defaultAccountID()),
		InitialBalance:       getEnvFloat("INITIAL_BALANCE", 10000.0),
		Symbols:              splitAndTrim(getEnv("SYMBOLS", "AAPL,MSFT")),
		UseMockFeed:          getEnv("USE_MOCK_FEED", "true") == "true",
		MockInterval:         getEnv("MOCK_FEED_INTERVAL", "1s"),
		ReplayDir:            getEnv("REPLAY_DIR", ""),
		ReplaySpeed:          getEnvFloat("REPLAY_SPEED", 1.0),
		QuantWindow:          getEnvInt("QUANT_WINDOW", 20),
		MaxOpenTrades:        getEnvInt("MAX_OPEN_TRADES", 20),
		MaxExposurePct:       getEnvFloat("MAX_EXPOSURE_PCT", 100.0),
		PerSymbolMaxTrades:   getEnvInt("PER_SYMBOL_MAX_TRADES", 1),
		MaxTradeRiskPct:      getEnvFloat("MAX_TRADE_RISK_PCT", 0.5),
		MaxDailyLossPct:      getEnvFloat("MAX_DAILY_LOSS_PCT", 3.0),
		CommissionPct:        getEnvFloat("COMMISSION_PCT", 0.0005),
		SlippagePct:          getEnvFloat("SLIPPAGE_PCT", 0.0005),
		StrategyConfigPath:   getEnv("STRATEGY_CONFIG_PATH", ""),
		EnabledStrategies:    splitAndTrim(getEnv("ENABLED_STRATEGIES", "")),
		DisabledStrategies:   splitAndTrim(getEnv("DISABLED_STRATEGIES", "")),
		DBPath:               getEnv("DB_PATH", "./data/papertrader.db"),
		TradeLogDir:          getEnv("TRADE_LOG_DIR", "./runtime/trades"),
		KillSwitchPath:       getEnv("KILL_SWITCH_PATH", "./runtime/kill_switch.flag"),
		JWTSecret:            getEnv("JWT_SECRET", "dev-secret"),
		OperatorUser:         getEnv("OPERATOR_USER", "operator"),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
	}, nil
}

// defaultAccountID derives a stable per-machine account id so restarts keep
// appending to the same trade history.
func defaultAccountID() string {
	if id, err := machineid.ID(); err == nil && id != "" {
		if len(id) > 12 {
			id = id[:12]
		}
		return "paper-" + id
	}
	return "paper-default"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

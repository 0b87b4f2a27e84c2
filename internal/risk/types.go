package risk

// Config carries the account risk limits. Percent values are whole percents,
// so MaxTradeRiskPct 0.5 means half a percent of equity per trade.
type Config struct {
	InitialEquity      float64
	MaxOpenTrades      int
	MaxExposurePct     float64
	PerSymbolMaxTrades int
	MaxTradeRiskPct    float64
	MaxDailyLossPct    float64
}

// DefaultConfig is a conservative paper-account profile.
func DefaultConfig() Config {
	return Config{
		InitialEquity:      10000,
		MaxOpenTrades:      20,
		MaxExposurePct:     100,
		PerSymbolMaxTrades: 1,
		MaxTradeRiskPct:    0.5,
		MaxDailyLossPct:    3.0,
	}
}

// State is the mutable risk bookkeeping for one account. Callers serialize
// access; the manager does not lock.
type State struct {
	EquityStart          float64
	Equity               float64
	RealizedPnL          float64
	OpenTrades           int
	OpenNotionalBySymbol map[string]float64
}

// NewState starts a fresh day at the configured equity.
func NewState(cfg Config) *State {
	return &State{
		EquityStart:          cfg.InitialEquity,
		Equity:               cfg.InitialEquity,
		OpenNotionalBySymbol: make(map[string]float64),
	}
}

// Reason codes returned by CanOpen. A rejection always carries exactly one.
const (
	ReasonOK                      = "ok"
	ReasonCircuitBreaker          = "circuit_breaker_triggered"
	ReasonEquityNonPositive       = "equity_non_positive"
	ReasonNonPositiveNotional     = "non_positive_notional"
	ReasonMaxTradeRiskExceeded    = "max_trade_risk_pct_exceeded"
	ReasonMaxOpenTradesExceeded   = "max_open_trades_exceeded"
	ReasonPerSymbolTradesExceeded = "per_symbol_max_trades_exceeded"
	ReasonMaxExposureExceeded     = "max_exposure_pct_exceeded"
)

package risk

import (
	"log"
	"sync"

	"papertrader/internal/strategy"
)

// AccountSummary is the account snapshot the manager can resync from. The
// paper broker satisfies this.
type AccountSummary interface {
	Equity() float64
	OpenPositionCount() int
	OpenNotionalBySymbol() map[string]float64
}

// Manager gates trade proposals against configured limits and keeps the risk
// state consistent across open/close cycles. The engine writes while API
// handlers read, so state sits behind the mutex.
type Manager struct {
	mu    sync.RWMutex
	cfg   Config
	state *State
}

func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, state: NewState(cfg)}
}

// DrawdownPct is the loss from the day's starting equity, in whole percents,
// never negative.
func (m *Manager) DrawdownPct() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drawdownPctLocked()
}

// drawdownPctLocked expects m.mu to be held.
func (m *Manager) drawdownPctLocked() float64 {
	if m.state.EquityStart <= 0 {
		return 0
	}
	dd := (m.state.EquityStart - m.state.Equity) / m.state.EquityStart * 100
	if dd < 0 {
		return 0
	}
	return dd
}

// CircuitBreakerTriggered reports whether the daily loss limit is hit. It is
// derived from current equity, so it clears on its own if equity recovers.
func (m *Manager) CircuitBreakerTriggered() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.breakerLocked()
}

func (m *Manager) breakerLocked() bool {
	return m.drawdownPctLocked() >= m.cfg.MaxDailyLossPct
}

// CanOpen checks a proposal against the limits in a fixed order and returns
// the first failing rule's reason code, or "ok". It never mutates state, so
// repeated calls with no intervening OnOpen/OnClose agree.
func (m *Manager) CanOpen(d *strategy.Decision, price float64) (bool, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.breakerLocked() {
		return false, ReasonCircuitBreaker
	}
	if m.state.Equity <= 0 {
		return false, ReasonEquityNonPositive
	}

	notional := m.state.Equity * d.SizePct
	if notional <= 0 {
		return false, ReasonNonPositiveNotional
	}
	if notional/m.state.Equity*100 > m.cfg.MaxTradeRiskPct {
		return false, ReasonMaxTradeRiskExceeded
	}
	if m.state.OpenTrades+1 > m.cfg.MaxOpenTrades {
		return false, ReasonMaxOpenTradesExceeded
	}
	if m.symbolTradeCount(d.Symbol)+1 > m.cfg.PerSymbolMaxTrades {
		return false, ReasonPerSymbolTradesExceeded
	}

	total := notional
	for _, open := range m.state.OpenNotionalBySymbol {
		total += open
	}
	if total/m.state.Equity*100 > m.cfg.MaxExposurePct {
		return false, ReasonMaxExposureExceeded
	}

	return true, ReasonOK
}

// OnOpen records an accepted open. Notional is recomputed here from current
// equity, matching what the broker books for the same decision.
func (m *Manager) OnOpen(d *strategy.Decision, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	notional := m.state.Equity * d.SizePct
	m.state.OpenTrades++
	m.state.OpenNotionalBySymbol[d.Symbol] += notional
}

// OnClose unwinds one position's bookkeeping and realizes its pnl. Counters
// and buckets floor at zero.
func (m *Manager) OnClose(symbol string, notional, pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.OpenTrades--
	if m.state.OpenTrades < 0 {
		m.state.OpenTrades = 0
	}

	remaining := m.state.OpenNotionalBySymbol[symbol] - notional
	if remaining < 0 {
		remaining = 0
	}
	m.state.OpenNotionalBySymbol[symbol] = remaining

	m.state.RealizedPnL += pnl
	m.state.Equity += pnl
}

// RefreshFromBroker resyncs equity and open-position bookkeeping from the
// account snapshot. Used at startup and after force-close sweeps.
func (m *Manager) RefreshFromBroker(acct AccountSummary) {
	equity := acct.Equity()
	openTrades := acct.OpenPositionCount()
	notional := acct.OpenNotionalBySymbol()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Equity = equity
	m.state.OpenTrades = openTrades
	m.state.OpenNotionalBySymbol = make(map[string]float64, len(notional))
	for symbol, open := range notional {
		m.state.OpenNotionalBySymbol[symbol] = open
	}
	if m.breakerLocked() {
		log.Printf("[RISK] circuit breaker active after refresh: drawdown=%.2f%%", m.drawdownPctLocked())
	}
}

// Snapshot returns a copy of the current risk state for reporting.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := State{
		EquityStart:          m.state.EquityStart,
		Equity:               m.state.Equity,
		RealizedPnL:          m.state.RealizedPnL,
		OpenTrades:           m.state.OpenTrades,
		OpenNotionalBySymbol: make(map[string]float64, len(m.state.OpenNotionalBySymbol)),
	}
	for symbol, notional := range m.state.OpenNotionalBySymbol {
		s.OpenNotionalBySymbol[symbol] = notional
	}
	return s
}

// Config returns the configured limits.
func (m *Manager) Config() Config {
	return m.cfg
}

// symbolTradeCount treats a symbol as carrying one open trade while its
// notional bucket is non-empty.
func (m *Manager) symbolTradeCount(symbol string) int {
	if m.state.OpenNotionalBySymbol[symbol] > 0 {
		return 1
	}
	return 0
}

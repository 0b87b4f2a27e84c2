// Package engine runs the bar-to-execution pipeline: indicators, composite
// aggregation, strategy dispatch, risk gating, and broker execution, one bar
// at a time in a single goroutine.
package engine

import (
	"context"
	"log"

	"papertrader/internal/broker"
	"papertrader/internal/events"
	"papertrader/internal/killswitch"
	"papertrader/internal/market"
	"papertrader/internal/monitor"
	"papertrader/internal/risk"
	"papertrader/internal/signals"
	"papertrader/internal/strategy"
)

// Config tunes the engine loop.
type Config struct {
	QuantWindow int // bar window for indicators
	MaxBars     int // per-symbol history cap
	Weights     signals.Weights
	Threshold   float64
}

// DefaultConfig keeps a 20-bar indicator window.
func DefaultConfig() Config {
	return Config{
		QuantWindow: 20,
		MaxBars:     500,
		Weights:     signals.DefaultWeights,
		Threshold:   signals.DefaultThreshold,
	}
}

// Engine consumes bars and contextual signals from the bus and drives the
// decision pipeline. All state is touched from the Run goroutine only.
type Engine struct {
	cfg        Config
	bus        *events.Bus
	strategies *strategy.Manager
	riskMgr    *risk.Manager
	brk        *broker.Paper
	kill       *killswitch.Switch
	metrics    *monitor.Metrics

	bars      map[string][]signals.Bar
	news      map[string]signals.NLP
	social    map[string]signals.Social
	positions map[string]string // position id -> symbol, for close bookkeeping

	done chan struct{} // closed when Run returns
}

// New wires an engine. Metrics may be nil.
func New(cfg Config, bus *events.Bus, strategies *strategy.Manager, riskMgr *risk.Manager, brk *broker.Paper, kill *killswitch.Switch, metrics *monitor.Metrics) *Engine {
	if cfg.QuantWindow <= 0 {
		cfg.QuantWindow = DefaultConfig().QuantWindow
	}
	if cfg.MaxBars < cfg.QuantWindow+1 {
		cfg.MaxBars = DefaultConfig().MaxBars
	}
	if cfg.Weights == (signals.Weights{}) {
		cfg.Weights = signals.DefaultWeights
	}
	if metrics == nil {
		metrics = monitor.NewMetrics()
	}
	return &Engine{
		cfg:        cfg,
		bus:        bus,
		strategies: strategies,
		riskMgr:    riskMgr,
		brk:        brk,
		kill:       kill,
		metrics:    metrics,
		bars:       make(map[string][]signals.Bar),
		news:       make(map[string]signals.NLP),
		social:     make(map[string]signals.Social),
		positions:  make(map[string]string),
		done:       make(chan struct{}),
	}
}

// Run consumes the bus until the context is cancelled. It owns all engine
// state; shutdown must wait on Done before touching positions.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	barCh, unsubBars := e.bus.Subscribe(events.EventBar, 256)
	defer unsubBars()
	newsCh, unsubNews := e.bus.Subscribe(events.EventNews, 64)
	defer unsubNews()
	socialCh, unsubSocial := e.bus.Subscribe(events.EventSocial, 64)
	defer unsubSocial()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-newsCh:
			if !ok {
				return
			}
			if nlp, ok := msg.(signals.NLP); ok {
				e.news[nlp.Entity] = nlp
			}
		case msg, ok := <-socialCh:
			if !ok {
				return
			}
			if soc, ok := msg.(signals.Social); ok {
				e.social[soc.Symbol] = soc
			}
		case msg, ok := <-barCh:
			if !ok {
				return
			}
			bar, ok := msg.(market.Bar)
			if !ok {
				continue
			}
			timer := monitor.NewTimer(e.metrics.TickLatency)
			e.OnBar(bar)
			timer.Stop()
		}
	}
}

// OnBar processes one bar through the full pipeline. Exported so backtests
// and tests can drive the engine without the bus.
func (e *Engine) OnBar(bar market.Bar) {
	e.metrics.Counter("bars_processed_total", "bars consumed by the engine").Inc()

	window := append(e.bars[bar.Symbol], bar.Bar)
	if len(window) > e.cfg.MaxBars {
		window = window[len(window)-e.cfg.MaxBars:]
	}
	e.bars[bar.Symbol] = window

	// TP/SL sweep runs on every bar, including warm-up bars.
	e.sweepCloses(map[string]float64{bar.Symbol: bar.Close})

	if len(window) < e.cfg.QuantWindow {
		return
	}

	sig := e.buildSignal(bar.Symbol, window)
	e.bus.Publish(events.EventCompositeSignal, sig)
	e.metrics.Counter("signals_generated_total", "composite signals").Inc()

	e.dispatch(sig, bar.Close)
	e.publishRiskGauges()
}

func (e *Engine) buildSignal(symbol string, window []signals.Bar) signals.Composite {
	quant := signals.FromBars(symbol, window, e.cfg.QuantWindow)
	nlp := e.news[symbol]
	social, ok := e.social[symbol]
	if !ok {
		social = signals.NeutralSocial(symbol)
	}
	return signals.Aggregate(symbol, quant, nlp, &social, e.cfg.Weights, e.cfg.Threshold)
}

func (e *Engine) dispatch(sig signals.Composite, price float64) {
	for _, strat := range e.strategies.SelectForSignal(sig) {
		decision := strat.OnNewSignal(sig)
		if decision == nil {
			continue
		}
		e.metrics.Counter("decisions_total", "strategy decisions").Inc()
		e.bus.Publish(events.EventDecision, decision)
		e.tryOpen(decision, price)
	}
}

// tryOpen gates one decision and executes it. A failure for one symbol is
// logged and never aborts the tick.
func (e *Engine) tryOpen(decision *strategy.Decision, price float64) {
	if e.kill != nil && e.kill.Engaged() {
		log.Printf("[ENGINE] kill switch engaged; dropping %s decision for %s",
			decision.StrategyName, decision.Symbol)
		e.metrics.Counter("decisions_killed_total", "decisions dropped by kill switch").Inc()
		return
	}

	allowed, reason := e.riskMgr.CanOpen(decision, price)
	if !allowed {
		e.metrics.Counter("risk_rejections_total", "decisions rejected by risk").Inc()
		log.Printf("[RISK] rejected %s %s %s: %s",
			decision.StrategyName, decision.Side, decision.Symbol, reason)
		if reason == risk.ReasonCircuitBreaker {
			e.bus.Publish(events.EventRiskAlert, "circuit breaker rejected "+decision.Symbol)
		}
		return
	}

	order, pos, err := e.brk.ExecuteDecision(decision, price)
	if err != nil {
		e.metrics.Counter("execution_errors_total", "broker execution failures").Inc()
		log.Printf("[ENGINE] execution failed for %s: %v", decision.Symbol, err)
		return
	}
	e.riskMgr.OnOpen(decision, price)
	e.positions[pos.ID] = pos.Symbol
	e.metrics.Counter("orders_filled_total", "filled orders").Inc()
	e.bus.Publish(events.EventOrderFilled, order)
	log.Printf("[ENGINE] opened %s %s qty=%.6f @ %.4f (%s)",
		pos.Side, pos.Symbol, pos.Qty, pos.EntryPrice, decision.StrategyName)
}

func (e *Engine) sweepCloses(prices map[string]float64) {
	closed := e.brk.CheckTPSL(prices)
	for id, c := range closed {
		e.riskMgr.OnClose(c.Position.Symbol, c.Notional, c.Position.RealizedPnL)
		delete(e.positions, id)
		e.metrics.Counter("positions_closed_total", "positions closed by TP/SL").Inc()
		e.bus.Publish(events.EventPositionClosed, c.Position)
		log.Printf("[ENGINE] closed %s %s pnl=%.4f",
			c.Position.Side, c.Position.Symbol, c.Position.RealizedPnL)
	}
	if e.riskMgr.CircuitBreakerTriggered() && len(closed) > 0 {
		e.bus.Publish(events.EventRiskAlert,
			"circuit breaker triggered after closes")
	}
}

// ForceCloseAll closes every open position at the given prices and updates
// risk bookkeeping. Used on shutdown and kill-switch engage.
// Done is closed once Run has exited and no further bars will be processed.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) ForceCloseAll(prices map[string]float64) {
	closed := e.brk.ForceCloseAll(prices)
	for id, c := range closed {
		e.riskMgr.OnClose(c.Position.Symbol, c.Notional, c.Position.RealizedPnL)
		delete(e.positions, id)
		e.metrics.Counter("positions_closed_total", "positions closed by TP/SL").Inc()
		e.bus.Publish(events.EventPositionClosed, c.Position)
	}
}

// LastPrices returns the most recent close per tracked symbol.
func (e *Engine) LastPrices() map[string]float64 {
	out := make(map[string]float64, len(e.bars))
	for symbol, window := range e.bars {
		if len(window) > 0 {
			out[symbol] = window[len(window)-1].Close
		}
	}
	return out
}

func (e *Engine) publishRiskGauges() {
	snap := e.riskMgr.Snapshot()
	e.metrics.Gauge("equity", "account equity").Set(snap.Equity)
	e.metrics.Gauge("realized_pnl", "realized pnl").Set(snap.RealizedPnL)
	e.metrics.Gauge("open_trades", "open trade count").Set(float64(snap.OpenTrades))
	e.metrics.Gauge("drawdown_pct", "drawdown from day start").Set(e.riskMgr.DrawdownPct())
}

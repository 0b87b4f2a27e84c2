// Package backtest replays recorded bars through the decision pipeline for
// one symbol and reports equity-curve statistics.
package backtest

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"papertrader/internal/broker"
	"papertrader/internal/monitor"
	"papertrader/internal/risk"
	"papertrader/internal/signals"
	"papertrader/internal/strategy"
	"papertrader/internal/tradelog"
)

// Config for one backtest run.
type Config struct {
	Symbol        string
	InitialEquity float64
	Window        int
	RiskConfig    risk.Config
	BrokerConfig  broker.Config
	// Static contextual signals applied to every bar, as live ingestion is
	// out of scope for a replay.
	News   signals.NLP
	Social *signals.Social
}

// EquityPoint is one step of the equity curve, sampled at bar close.
type EquityPoint struct {
	Ts     time.Time `json:"ts"`
	Equity float64   `json:"equity"`
}

// Result summarizes a completed run.
type Result struct {
	Symbol         string            `json:"symbol"`
	Bars           int               `json:"bars"`
	Trades         []tradelog.Record `json:"trades"`
	EquityCurve    []EquityPoint     `json:"equity_curve"`
	FinalEquity    float64           `json:"final_equity"`
	TotalPnL       float64           `json:"total_pnl"`
	ReturnPct      float64           `json:"return_pct"`
	MaxDrawdownPct float64           `json:"max_drawdown_pct"`
	WinRate        float64           `json:"win_rate"`
	Sharpe         float64           `json:"sharpe"`
}

type recordingSink struct {
	records []tradelog.Record
}

func (r *recordingSink) Append(rec tradelog.Record) { r.records = append(r.records, rec) }

// Run replays the bars in timestamp order through indicators, dispatch, risk
// gating, and the paper broker. TP/SL is evaluated at each bar close and
// anything left open is force-closed at the final close.
func Run(cfg Config, strategies *strategy.Manager, bars []signals.Bar, metrics *monitor.Metrics) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars provided for backtest")
	}
	if cfg.InitialEquity <= 0 {
		cfg.InitialEquity = cfg.RiskConfig.InitialEquity
	}
	if cfg.Window <= 0 {
		cfg.Window = 20
	}
	if metrics == nil {
		metrics = monitor.NewMetrics()
	}
	riskCfg := cfg.RiskConfig
	if riskCfg.InitialEquity != cfg.InitialEquity {
		riskCfg.InitialEquity = cfg.InitialEquity
	}

	sorted := make([]signals.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ts.Before(sorted[j].Ts) })

	sink := &recordingSink{}
	brk := broker.NewPaper("backtest-"+cfg.Symbol, cfg.InitialEquity, cfg.BrokerConfig, sink)
	riskMgr := risk.NewManager(riskCfg)

	social := cfg.Social
	if social == nil {
		s := signals.NeutralSocial(cfg.Symbol)
		social = &s
	}

	curve := make([]EquityPoint, 0, len(sorted))
	for i, bar := range sorted {
		price := bar.Close

		sweep(brk, riskMgr, map[string]float64{cfg.Symbol: price})

		if i+1 >= cfg.Window {
			windowBars := sorted[i+1-cfg.Window : i+1]
			quant := signals.FromBars(cfg.Symbol, windowBars, cfg.Window)
			sig := signals.Aggregate(cfg.Symbol, quant, cfg.News, social,
				signals.DefaultWeights, signals.DefaultThreshold)
			metrics.Counter("backtest_signals_total", "composite signals replayed").Inc()

			for _, strat := range strategies.SelectForSignal(sig) {
				decision := strat.OnNewSignal(sig)
				if decision == nil {
					continue
				}
				allowed, reason := riskMgr.CanOpen(decision, price)
				if !allowed {
					metrics.Counter("backtest_rejections_total", "risk rejections").Inc()
					log.Printf("[BACKTEST] blocked %s on %s: %s", decision.StrategyName, cfg.Symbol, reason)
					continue
				}
				if _, _, err := brk.ExecuteDecision(decision, price); err != nil {
					log.Printf("[BACKTEST] execution failed: %v", err)
					continue
				}
				riskMgr.OnOpen(decision, price)
				metrics.Counter("backtest_trades_total", "opened positions").Inc()
			}
		}

		curve = append(curve, EquityPoint{Ts: bar.Ts, Equity: brk.Equity()})
	}

	// Force-close leftovers at the final close.
	lastPrice := sorted[len(sorted)-1].Close
	for _, c := range brk.ForceCloseAll(map[string]float64{cfg.Symbol: lastPrice}) {
		riskMgr.OnClose(c.Position.Symbol, c.Notional, c.Position.RealizedPnL)
	}
	curve[len(curve)-1].Equity = brk.Equity()

	res := &Result{
		Symbol:      cfg.Symbol,
		Bars:        len(sorted),
		Trades:      sink.records,
		EquityCurve: curve,
		FinalEquity: brk.Equity(),
		TotalPnL:    brk.Equity() - cfg.InitialEquity,
	}
	if cfg.InitialEquity > 0 {
		res.ReturnPct = res.TotalPnL / cfg.InitialEquity * 100
	}
	res.MaxDrawdownPct = maxDrawdownPct(curve)
	res.WinRate = winRate(sink.records)
	res.Sharpe = sharpe(curve)

	metrics.Gauge("backtest_final_equity", "equity at end of replay").Set(res.FinalEquity)
	return res, nil
}

func sweep(brk *broker.Paper, riskMgr *risk.Manager, prices map[string]float64) {
	for _, c := range brk.CheckTPSL(prices) {
		riskMgr.OnClose(c.Position.Symbol, c.Notional, c.Position.RealizedPnL)
	}
}

func maxDrawdownPct(curve []EquityPoint) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func winRate(trades []tradelog.Record) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades)) * 100
}

// sharpe is a rough step-based ratio over per-bar equity returns.
func sharpe(curve []EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}
	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		rets = append(rets, (curve[i].Equity-prev)/prev)
	}
	if len(rets) < 2 {
		return 0
	}

	var sum float64
	for _, r := range rets {
		sum += r
	}
	mean := sum / float64(len(rets))

	var variance float64
	for _, r := range rets {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(rets) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(float64(len(rets)))
}

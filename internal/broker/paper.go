package broker

import (
	"fmt"
	"sync"
	"time"

	"papertrader/internal/strategy"
	"papertrader/internal/tradelog"
)

// Config sets the simulated trading costs.
type Config struct {
	CommissionPct float64 // fraction of entry notional, charged at open and again at close
	SlippagePct   float64 // fill price moves this fraction against the trader
}

// DefaultConfig is 5 bps commission and 5 bps slippage.
func DefaultConfig() Config {
	return Config{CommissionPct: 0.0005, SlippagePct: 0.0005}
}

// Paper is an in-memory broker with immediate fills and TP/SL tracking. The
// engine mutates it while API handlers read snapshots, so all state sits
// behind the mutex.
type Paper struct {
	mu        sync.RWMutex
	cfg       Config
	accountID string
	account   AccountState
	orders    map[string]*Order
	meta      map[string]*strategy.Decision
	sink      tradelog.Sink
}

// NewPaper starts a fresh account. A nil sink disables trade logging.
func NewPaper(accountID string, initialBalance float64, cfg Config, sink tradelog.Sink) *Paper {
	if sink == nil {
		sink = tradelog.Nop{}
	}
	return &Paper{
		cfg:       cfg,
		accountID: accountID,
		account: AccountState{
			Balance:   initialBalance,
			Equity:    initialBalance,
			Positions: make(map[string]*Position),
		},
		orders: make(map[string]*Order),
		meta:   make(map[string]*strategy.Decision),
		sink:   sink,
	}
}

// ExecuteDecision fills a decision at the given price plus slippage and opens
// the resulting position. Commission on the entry notional is deducted
// immediately.
func (b *Paper) ExecuteDecision(d *strategy.Decision, price float64) (*Order, *Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	notional := b.account.Equity * d.SizePct
	if notional <= 0 {
		return nil, nil, fmt.Errorf("decision size_pct must yield positive notional, got %f", notional)
	}
	if price <= 0 {
		return nil, nil, fmt.Errorf("invalid price %f for %s", price, d.Symbol)
	}

	qty := notional / price
	now := time.Now()

	var fillPrice float64
	var posSide string
	if d.Side == strategy.SideBuy {
		fillPrice = price * (1 + b.cfg.SlippagePct)
		posSide = PositionLong
	} else {
		fillPrice = price * (1 - b.cfg.SlippagePct)
		posSide = PositionShort
	}

	order := &Order{
		ID:           newID("ord"),
		Symbol:       d.Symbol,
		Side:         string(d.Side),
		Qty:          qty,
		Type:         d.OrderType,
		Status:       OrderStatusFilled,
		LimitPrice:   d.LimitPrice,
		FilledQty:    qty,
		AvgFillPrice: fillPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	b.orders[order.ID] = order

	commission := notional * b.cfg.CommissionPct
	b.account.Balance -= commission
	b.account.RealizedPnL -= commission
	b.account.Equity = b.account.Balance

	pos := &Position{
		ID:         newID("pos"),
		Symbol:     d.Symbol,
		Side:       posSide,
		Qty:        qty,
		EntryPrice: fillPrice,
		OpenedAt:   now,
	}
	if d.TakeProfitPct != 0 {
		tp := fillPrice * (1 + d.TakeProfitPct)
		if posSide == PositionShort {
			tp = fillPrice * (1 - d.TakeProfitPct)
		}
		pos.TakeProfit = &tp
	}
	if d.StopLossPct != 0 {
		sl := fillPrice * (1 - d.StopLossPct)
		if posSide == PositionShort {
			sl = fillPrice * (1 + d.StopLossPct)
		}
		pos.StopLoss = &sl
	}
	b.account.Positions[pos.ID] = pos
	b.meta[pos.ID] = d

	return order, pos, nil
}

// ClosePosition closes an open position at the given price, realizing PnL net
// of a second commission on the entry notional. Returns the closed position
// copy and its entry notional for risk bookkeeping.
func (b *Paper) ClosePosition(positionID string, price float64) (*Position, float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closePosition(positionID, price, "")
}

// closePosition expects b.mu to be held.
func (b *Paper) closePosition(positionID string, price float64, closeReason string) (*Position, float64, error) {
	pos, ok := b.account.Positions[positionID]
	if !ok {
		return nil, 0, fmt.Errorf("unknown position id %s", positionID)
	}
	delete(b.account.Positions, positionID)

	notional := pos.Notional()

	var grossPnL float64
	if pos.Side == PositionLong {
		grossPnL = (price - pos.EntryPrice) * pos.Qty
	} else {
		grossPnL = (pos.EntryPrice - price) * pos.Qty
	}

	commission := notional * b.cfg.CommissionPct
	pnl := grossPnL - commission

	b.account.Balance += pnl
	b.account.RealizedPnL += pnl
	b.account.Equity = b.account.Balance

	now := time.Now()
	pos.ClosedAt = now
	pos.RealizedPnL = pnl

	pnlPct := 0.0
	if notional > 0 {
		pnlPct = pnl / notional * 100
	}
	rec := tradelog.Record{
		TradeID:     pos.ID,
		AccountID:   b.accountID,
		Symbol:      pos.Symbol,
		Side:        pos.Side,
		Qty:         pos.Qty,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   price,
		PnL:         pnl,
		PnLPct:      pnlPct,
		Reason:      closeReason,
		OpenedAt:    pos.OpenedAt,
		ClosedAt:    now,
		DurationSec: now.Sub(pos.OpenedAt).Seconds(),
	}
	if meta, ok := b.meta[pos.ID]; ok {
		rec.Strategy = meta.StrategyName
		if closeReason == "" {
			rec.Reason = meta.Reason
		}
		delete(b.meta, pos.ID)
	}
	b.sink.Append(rec)

	return pos, notional, nil
}

// Closed pairs a closed position with its pre-close entry notional.
type Closed struct {
	Position *Position
	Notional float64
}

// CheckTPSL evaluates take-profit before stop-loss for every open position
// with a known price and closes the ones that trigger at that price. Returns
// closed positions keyed by position id.
func (b *Paper) CheckTPSL(prices map[string]float64) map[string]Closed {
	b.mu.Lock()
	defer b.mu.Unlock()

	type hit struct {
		id     string
		price  float64
		reason string
	}
	var hits []hit
	for id, pos := range b.account.Positions {
		price, ok := prices[pos.Symbol]
		if !ok {
			continue
		}

		hitTP := false
		if pos.TakeProfit != nil {
			if pos.Side == PositionLong && price >= *pos.TakeProfit {
				hitTP = true
			} else if pos.Side == PositionShort && price <= *pos.TakeProfit {
				hitTP = true
			}
		}
		if hitTP {
			hits = append(hits, hit{id, price, "take_profit"})
			continue
		}
		if pos.StopLoss != nil {
			if pos.Side == PositionLong && price <= *pos.StopLoss {
				hits = append(hits, hit{id, price, "stop_loss"})
			} else if pos.Side == PositionShort && price >= *pos.StopLoss {
				hits = append(hits, hit{id, price, "stop_loss"})
			}
		}
	}

	result := make(map[string]Closed, len(hits))
	for _, h := range hits {
		closed, notional, err := b.closePosition(h.id, h.price, h.reason)
		if err != nil {
			continue
		}
		result[h.id] = Closed{Position: closed, Notional: notional}
	}
	return result
}

// ForceCloseAll closes every open position at the given prices; positions
// without a price stay open. Used at backtest end and on kill-switch.
func (b *Paper) ForceCloseAll(prices map[string]float64) map[string]Closed {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ids []string
	for id, pos := range b.account.Positions {
		if _, ok := prices[pos.Symbol]; ok {
			ids = append(ids, id)
		}
	}
	result := make(map[string]Closed, len(ids))
	for _, id := range ids {
		price := prices[b.account.Positions[id].Symbol]
		closed, notional, err := b.closePosition(id, price, "force_close")
		if err != nil {
			continue
		}
		result[id] = Closed{Position: closed, Notional: notional}
	}
	return result
}

// Summary returns the current account snapshot.
func (b *Paper) Summary() Summary {
	b.mu.RLock()
	defer b.mu.RUnlock()

	open := 0.0
	for _, pos := range b.account.Positions {
		open += pos.Notional()
	}
	return Summary{
		AccountID:    b.accountID,
		Balance:      b.account.Balance,
		Equity:       b.account.Equity,
		RealizedPnL:  b.account.RealizedPnL,
		OpenCount:    len(b.account.Positions),
		OpenNotional: open,
	}
}

// Positions returns copies of the open positions.
func (b *Paper) Positions() []Position {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Position, 0, len(b.account.Positions))
	for _, pos := range b.account.Positions {
		out = append(out, *pos)
	}
	return out
}

// Orders returns copies of all orders placed this session.
func (b *Paper) Orders() []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, *o)
	}
	return out
}

// AccountID identifies this paper account in trade logs.
func (b *Paper) AccountID() string { return b.accountID }

// Equity reports current equity.
func (b *Paper) Equity() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.account.Equity
}

// OpenPositionCount reports how many positions are open.
func (b *Paper) OpenPositionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.account.Positions)
}

// OpenNotionalBySymbol sums open entry notional per symbol.
func (b *Paper) OpenNotionalBySymbol() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]float64)
	for _, pos := range b.account.Positions {
		out[pos.Symbol] += pos.Notional()
	}
	return out
}

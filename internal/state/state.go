package state

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Policy controls partial profit taking on open positions.
type Policy struct {
	ProfitTargetPercent float64
	PartialSellPercent  float64
	KeepPercent         float64
	// TakeOnce fires one partial sell per crossing of the target and re-arms
	// once price trades back below it. When false, every evaluation at or
	// above target sells again.
	TakeOnce bool
	// EnforceReserve keeps KeepPercent of the opening quantity out of
	// partial sells.
	EnforceReserve bool
}

type Position struct {
	Symbol     string
	EntryPrice float64
	Qty        decimal.Decimal
	OpenQty    decimal.Decimal
	OpenedAt   time.Time
	// ProfitTaken is set after a partial sell while TakeOnce is active.
	ProfitTaken bool
}

// TargetPrice is the price at which partial profit taking starts.
func (p Position) TargetPrice(profitTargetPercent float64) float64 {
	return p.EntryPrice * (1 + profitTargetPercent)
}

// Holdings is the per-symbol position book for one run. It holds at most one
// position per symbol and is not persisted.
type Holdings struct {
	policy    Policy
	positions map[string]*Position
}

func NewHoldings(policy Policy) *Holdings {
	return &Holdings{
		policy:    policy,
		positions: map[string]*Position{},
	}
}

func (h *Holdings) Policy() Policy {
	return h.policy
}

func (h *Holdings) Get(symbol string) (Position, bool) {
	pos, ok := h.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

func (h *Holdings) Holding(symbol string) bool {
	_, ok := h.positions[symbol]
	return ok
}

func (h *Holdings) Open(symbol string, entryPrice float64, qty decimal.Decimal, at time.Time) (Position, error) {
	if _, ok := h.positions[symbol]; ok {
		return Position{}, fmt.Errorf("position already open for %s", symbol)
	}
	if !qty.IsPositive() {
		return Position{}, fmt.Errorf("position quantity must be > 0, got %s", qty)
	}
	pos := &Position{
		Symbol:     symbol,
		EntryPrice: entryPrice,
		Qty:        qty,
		OpenQty:    qty,
		OpenedAt:   at,
	}
	h.positions[symbol] = pos
	return *pos, nil
}

// ProfitTake reports how much of the position to sell at price. It returns
// false when the target is not reached or nothing may be sold.
func (h *Holdings) ProfitTake(symbol string, price float64) (decimal.Decimal, bool) {
	pos, ok := h.positions[symbol]
	if !ok {
		return decimal.Zero, false
	}

	if price < pos.TargetPrice(h.policy.ProfitTargetPercent) {
		pos.ProfitTaken = false
		return decimal.Zero, false
	}
	if h.policy.TakeOnce && pos.ProfitTaken {
		return decimal.Zero, false
	}

	qty := pos.Qty.Mul(decimal.NewFromFloat(h.policy.PartialSellPercent))
	if h.policy.EnforceReserve {
		floor := pos.OpenQty.Mul(decimal.NewFromFloat(h.policy.KeepPercent))
		sellable := pos.Qty.Sub(floor)
		if !sellable.IsPositive() {
			return decimal.Zero, false
		}
		if qty.GreaterThan(sellable) {
			qty = sellable
		}
	}
	if !qty.IsPositive() {
		return decimal.Zero, false
	}
	return qty, true
}

// ReducePosition records a filled partial sell.
func (h *Holdings) ReducePosition(symbol string, sold decimal.Decimal) (Position, error) {
	pos, ok := h.positions[symbol]
	if !ok {
		return Position{}, fmt.Errorf("no position for %s", symbol)
	}
	if sold.GreaterThan(pos.Qty) {
		return Position{}, fmt.Errorf("cannot reduce %s by %s, holding %s", symbol, sold, pos.Qty)
	}
	pos.Qty = pos.Qty.Sub(sold)
	if h.policy.TakeOnce {
		pos.ProfitTaken = true
	}
	return *pos, nil
}

func (h *Holdings) Close(symbol string) (Position, bool) {
	pos, ok := h.positions[symbol]
	if !ok {
		return Position{}, false
	}
	delete(h.positions, symbol)
	return *pos, true
}

// Symbols returns the held symbols in sorted order.
func (h *Holdings) Symbols() []string {
	symbols := make([]string, 0, len(h.positions))
	for symbol := range h.positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"cryptobot/internal/broker"
	"cryptobot/internal/ledger"
	"cryptobot/internal/risk"
	"cryptobot/internal/strategy"

	"github.com/shopspring/decimal"
)

// OrderPlacer submits market orders and reports the price they executed at.
type OrderPlacer interface {
	MarketBuy(ctx context.Context, symbol string, qty decimal.Decimal, clientOrderID string) (broker.Fill, error)
	MarketSell(ctx context.Context, symbol string, qty decimal.Decimal, clientOrderID string) (broker.Fill, error)
}

type TradeWriter interface {
	Append(record ledger.TradeRecord) error
}

type ExecutorOptions struct {
	RunID       string
	MaxNotional float64
	KillSwitch  bool
}

// Executor places orders through the broker and records every fill in the
// ledger.
type Executor struct {
	broker      OrderPlacer
	ledger      TradeWriter
	gate        risk.Gate
	opts        ExecutorOptions
	orderSeqNum uint64
	now         func() time.Time
}

func NewExecutor(brokerClient OrderPlacer, trades TradeWriter, gate risk.Gate, opts ExecutorOptions) *Executor {
	return &Executor{
		broker: brokerClient,
		ledger: trades,
		gate:   gate,
		opts:   opts,
		now:    time.Now,
	}
}

// Execute submits one order. refPrice is the latest close, used for risk
// checks only. When the order fills but the ledger write fails the returned
// record is valid and the error wraps ledger.ErrLedgerIO.
func (x *Executor) Execute(ctx context.Context, symbol string, action strategy.Action, qty decimal.Decimal, refPrice float64, positionQty decimal.Decimal) (ledger.TradeRecord, string, error) {
	approved, err := x.gate.Evaluate(risk.OrderIntent{Symbol: symbol, Action: action, Qty: qty}, risk.RiskContext{
		Price:       refPrice,
		PositionQty: positionQty,
		MaxNotional: x.opts.MaxNotional,
		KillSwitch:  x.opts.KillSwitch,
	})
	if err != nil {
		return ledger.TradeRecord{}, "", fmt.Errorf("%w: %s %s rejected: %v", broker.ErrOrderExecution, action, symbol, err)
	}

	clientOrderID := x.nextClientOrderID()
	var fill broker.Fill
	switch approved.Intent.Action {
	case strategy.Buy:
		fill, err = x.broker.MarketBuy(ctx, symbol, qty, clientOrderID)
	case strategy.Sell:
		fill, err = x.broker.MarketSell(ctx, symbol, qty, clientOrderID)
	default:
		return ledger.TradeRecord{}, "", fmt.Errorf("%w: unsupported action %q", broker.ErrOrderExecution, action)
	}
	if err != nil {
		return ledger.TradeRecord{}, "", err
	}
	if fill.Price <= 0 {
		return ledger.TradeRecord{}, fill.OrderID, fmt.Errorf("%w: no price for %s %s", broker.ErrOrderExecution, action, symbol)
	}

	quantity, _ := qty.Float64()
	record := ledger.TradeRecord{
		Timestamp: ledger.Timestamp{Time: x.now().UTC()},
		Symbol:    symbol,
		Action:    ledger.Action(action),
		Price:     fill.Price,
		Quantity:  quantity,
	}
	slog.Info(fmt.Sprintf("%s %s of %s at %v", capitalize(string(action)), qty.String(), symbol, fill.Price),
		"order_id", fill.OrderID, "client_order_id", clientOrderID)

	if err := x.ledger.Append(record); err != nil {
		return record, fill.OrderID, fmt.Errorf("record %s %s: %w", action, symbol, err)
	}
	return record, fill.OrderID, nil
}

func (x *Executor) nextClientOrderID() string {
	seq := atomic.AddUint64(&x.orderSeqNum, 1)
	return fmt.Sprintf("%s-%d", x.opts.RunID, seq)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

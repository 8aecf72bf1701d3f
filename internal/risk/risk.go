package risk

import (
	"fmt"
	"log/slog"

	"cryptobot/internal/strategy"

	"github.com/shopspring/decimal"
)

type OrderIntent struct {
	Symbol string
	Action strategy.Action
	Qty    decimal.Decimal
	Reason string
}

type RiskContext struct {
	Price       float64
	PositionQty decimal.Decimal
	MaxNotional float64
	KillSwitch  bool
}

type ApprovedIntent struct {
	Intent OrderIntent
	Reason string
}

// Gate vets an order before it reaches the broker.
type Gate struct{}

func (g Gate) Evaluate(intent OrderIntent, ctx RiskContext) (ApprovedIntent, error) {
	if intent.Action == strategy.Hold {
		return ApprovedIntent{Intent: intent, Reason: "hold"}, nil
	}

	notional, _ := intent.Qty.Mul(decimal.NewFromFloat(ctx.Price)).Float64()
	slog.Info("risk evaluation", "symbol", intent.Symbol, "intent", intent.Action, "qty", intent.Qty.String(), "position", ctx.PositionQty.String(), "price", ctx.Price, "notional", notional)

	if ctx.KillSwitch {
		slog.Info("risk rejected", "reason", "kill_switch_enabled")
		return ApprovedIntent{}, fmt.Errorf("kill_switch_enabled")
	}
	if !intent.Qty.IsPositive() {
		slog.Info("risk rejected", "reason", "invalid_quantity", "qty", intent.Qty.String())
		return ApprovedIntent{}, fmt.Errorf("invalid_quantity")
	}
	if intent.Action == strategy.Sell && intent.Qty.GreaterThan(ctx.PositionQty) {
		slog.Info("risk rejected", "reason", "sell_exceeds_position", "qty", intent.Qty.String(), "position", ctx.PositionQty.String())
		return ApprovedIntent{}, fmt.Errorf("sell_exceeds_position")
	}
	if intent.Action == strategy.Buy && ctx.MaxNotional > 0 && notional > ctx.MaxNotional {
		slog.Info("risk rejected", "reason", "max_notional_exceeded", "notional", notional, "max", ctx.MaxNotional)
		return ApprovedIntent{}, fmt.Errorf("max_notional_exceeded")
	}

	slog.Info("risk approved", "symbol", intent.Symbol, "intent", intent.Action, "qty", intent.Qty.String(), "reason", intent.Reason)
	return ApprovedIntent{Intent: intent, Reason: "approved"}, nil
}

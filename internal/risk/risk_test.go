package risk

import (
	"testing"

	"cryptobot/internal/strategy"

	"github.com/shopspring/decimal"
)

func TestGateRejectsKillSwitch(t *testing.T) {
	gate := Gate{}
	intent := OrderIntent{Symbol: "ETH/USD", Action: strategy.Buy, Qty: decimal.NewFromInt(1)}
	ctx := RiskContext{Price: 100, KillSwitch: true}

	if _, err := gate.Evaluate(intent, ctx); err == nil {
		t.Fatalf("expected kill switch rejection")
	}
}

func TestGateRejectsMaxNotional(t *testing.T) {
	gate := Gate{}
	intent := OrderIntent{Symbol: "ETH/USD", Action: strategy.Buy, Qty: decimal.NewFromInt(2)}
	ctx := RiskContext{Price: 100, MaxNotional: 150}

	if _, err := gate.Evaluate(intent, ctx); err == nil {
		t.Fatalf("expected max notional rejection")
	}
}

func TestGateRejectsSellBeyondPosition(t *testing.T) {
	gate := Gate{}
	intent := OrderIntent{Symbol: "ETH/USD", Action: strategy.Sell, Qty: decimal.NewFromInt(1)}
	ctx := RiskContext{Price: 100, PositionQty: decimal.RequireFromString("0.5")}

	if _, err := gate.Evaluate(intent, ctx); err == nil {
		t.Fatalf("expected sell beyond position rejection")
	}
}

func TestGateRejectsZeroQuantity(t *testing.T) {
	gate := Gate{}
	intent := OrderIntent{Symbol: "ETH/USD", Action: strategy.Buy, Qty: decimal.Zero}

	if _, err := gate.Evaluate(intent, RiskContext{Price: 100}); err == nil {
		t.Fatalf("expected invalid quantity rejection")
	}
}

func TestGateApprovesValidOrders(t *testing.T) {
	gate := Gate{}
	buy := OrderIntent{Symbol: "ETH/USD", Action: strategy.Buy, Qty: decimal.NewFromInt(1)}
	if _, err := gate.Evaluate(buy, RiskContext{Price: 100, MaxNotional: 500}); err != nil {
		t.Fatalf("expected buy approval, got %v", err)
	}
	sell := OrderIntent{Symbol: "ETH/USD", Action: strategy.Sell, Qty: decimal.RequireFromString("0.5")}
	if _, err := gate.Evaluate(sell, RiskContext{Price: 100, PositionQty: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("expected sell approval, got %v", err)
	}
}

package strategy

import "cryptobot/internal/indicator"

type Action string

const (
	Hold Action = "hold"
	Buy  Action = "buy"
	Sell Action = "sell"
)

// Signal is the evaluator's verdict on one indicator row.
type Signal struct {
	Action Action
	Reason string
}

type Strategy interface {
	Decide(snapshot indicator.Snapshot) Signal
}

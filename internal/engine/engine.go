package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cryptobot/internal/broker"
	"cryptobot/internal/indicator"
	"cryptobot/internal/ledger"
	"cryptobot/internal/report"
	"cryptobot/internal/state"
	"cryptobot/internal/strategy"

	"github.com/shopspring/decimal"
)

// PriceSource returns a fresh closing-price series for a symbol.
type PriceSource interface {
	Closes(ctx context.Context, symbol string) ([]indicator.Price, error)
}

type Options struct {
	Symbols      []string
	Indicators   indicator.Params
	TradeQty     decimal.Decimal
	PollInterval time.Duration
}

// PassResult summarizes one sweep over the symbol list.
type PassResult struct {
	Processed []string
	Failed    map[string]error
	Summary   report.Summary
	ReportErr error
}

type Engine struct {
	opts      Options
	prices    PriceSource
	strategy  strategy.Strategy
	holdings  *state.Holdings
	executor  *Executor
	ledger    report.Source
	decisions *DecisionLogger
	now       func() time.Time
}

func New(opts Options, prices PriceSource, strat strategy.Strategy, holdings *state.Holdings, executor *Executor, trades report.Source, decisions *DecisionLogger) *Engine {
	return &Engine{
		opts:      opts,
		prices:    prices,
		strategy:  strat,
		holdings:  holdings,
		executor:  executor,
		ledger:    trades,
		decisions: decisions,
		now:       time.Now,
	}
}

// Run repeats passes until ctx is cancelled, sleeping PollInterval after each.
func (e *Engine) Run(ctx context.Context) error {
	for {
		e.RunPass(ctx)
		if err := broker.WaitForContext(ctx, e.opts.PollInterval); err != nil {
			return err
		}
	}
}

// RunPass processes every symbol in order, then reports performance. A
// failure on one symbol is logged and does not stop the others.
func (e *Engine) RunPass(ctx context.Context) PassResult {
	result := PassResult{Failed: map[string]error{}}
	for _, symbol := range e.opts.Symbols {
		if ctx.Err() != nil {
			break
		}
		slog.Debug("checking symbol", "symbol", symbol)
		if err := e.processSymbol(ctx, symbol); err != nil {
			slog.Error("error processing symbol", "symbol", symbol, "error", err)
			result.Failed[symbol] = err
			continue
		}
		result.Processed = append(result.Processed, symbol)
	}

	summary, err := report.FromLedger(e.ledger)
	if err != nil {
		slog.Error("performance report failed", "error", err)
		result.ReportErr = err
		return result
	}
	result.Summary = summary
	slog.Info("performance", "trade_pairs", summary.Pairs, "total_profit", summary.Profit, "holding", e.holdings.Symbols())
	for _, s := range summary.Symbols {
		slog.Debug("performance by symbol", "symbol", s.Symbol, "trade_pairs", s.Pairs, "profit", s.Profit, "open_qty", s.OpenQty)
	}
	return result
}

func (e *Engine) processSymbol(ctx context.Context, symbol string) (err error) {
	decision := Decision{Timestamp: e.now().UTC(), Symbol: symbol}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			decision.Result = "panic"
		}
		if err != nil {
			decision.Error = err.Error()
			if decision.Result == "" {
				decision.Result = "error"
			}
		}
		e.decisions.Append(decision)
	}()

	prices, err := e.prices.Closes(ctx, symbol)
	if err != nil {
		decision.Result = "fetch_failed"
		return err
	}
	snapshots, err := indicator.Compute(prices, e.opts.Indicators)
	if err != nil {
		if errors.Is(err, indicator.ErrInsufficientData) {
			decision.Result = "insufficient_data"
		}
		return fmt.Errorf("indicators for %s: %w", symbol, err)
	}
	latest, err := indicator.Latest(snapshots)
	if err != nil {
		return err
	}

	signal := e.strategy.Decide(latest)
	decision.BarTime = latest.Timestamp
	decision.Close = latest.Close
	decision.Lower = latest.Lower
	decision.Upper = latest.Upper
	decision.RSI = latest.RSI
	decision.Signal = signal.Action
	decision.Reason = signal.Reason
	slog.Info("signal", "symbol", symbol, "close", latest.Close, "lower_band", latest.Lower, "upper_band", latest.Upper, "rsi", latest.RSI, "action", signal.Action)

	price := latest.Close
	if signal.Action == strategy.Buy && !e.holdings.Holding(symbol) {
		decision.Result = "buy_failed"
		_, orderID, err := e.executor.Execute(ctx, symbol, strategy.Buy, e.opts.TradeQty, price, decimal.Zero)
		if err != nil && !errors.Is(err, ledger.ErrLedgerIO) {
			return err
		}
		if _, openErr := e.holdings.Open(symbol, price, e.opts.TradeQty, e.now()); openErr != nil {
			return openErr
		}
		decision.Result = "bought"
		decision.Qty = e.opts.TradeQty.String()
		decision.OrderIDs = append(decision.OrderIDs, orderID)
		slog.Info("buy signal executed", "symbol", symbol, "entry_price", price, "qty", e.opts.TradeQty.String())
		return err
	}

	pos, holding := e.holdings.Get(symbol)
	if !holding {
		decision.Result = "hold"
		return nil
	}
	decision.Result = "holding"

	if qty, ok := e.holdings.ProfitTake(symbol, price); ok {
		decision.Result = "partial_sell_failed"
		_, orderID, err := e.executor.Execute(ctx, symbol, strategy.Sell, qty, price, pos.Qty)
		if err != nil && !errors.Is(err, ledger.ErrLedgerIO) {
			return err
		}
		reduced, reduceErr := e.holdings.ReducePosition(symbol, qty)
		if reduceErr != nil {
			return reduceErr
		}
		decision.Result = "partial_sell"
		decision.Qty = qty.String()
		decision.OrderIDs = append(decision.OrderIDs, orderID)
		slog.Info("profit target reached, partial sell executed", "symbol", symbol, "sold", qty.String(), "remaining", reduced.Qty.String(), "target", pos.TargetPrice(e.holdings.Policy().ProfitTargetPercent))
		if !reduced.Qty.IsPositive() {
			e.holdings.Close(symbol)
			decision.Result = "closed"
			return err
		}
		if err != nil {
			return err
		}
		pos = reduced
	}

	if signal.Action == strategy.Sell {
		decision.Result = "sell_failed"
		_, orderID, err := e.executor.Execute(ctx, symbol, strategy.Sell, pos.Qty, price, pos.Qty)
		if err != nil && !errors.Is(err, ledger.ErrLedgerIO) {
			return err
		}
		e.holdings.Close(symbol)
		decision.Result = "sold"
		decision.Qty = pos.Qty.String()
		decision.OrderIDs = append(decision.OrderIDs, orderID)
		slog.Info("sell signal executed", "symbol", symbol, "qty", pos.Qty.String())
		return err
	}
	return nil
}

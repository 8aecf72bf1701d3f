// Package report derives realized performance from the trade ledger.
package report

import (
	"fmt"
	"sort"

	"cryptobot/internal/ledger"

	"github.com/shopspring/decimal"
)

type Source interface {
	Records() ([]ledger.TradeRecord, error)
}

type SymbolSummary struct {
	Symbol  string
	Pairs   int
	Profit  float64
	OpenQty float64
}

type Summary struct {
	// Pairs counts sells matched against at least one earlier buy.
	Pairs   int
	Profit  float64
	Symbols []SymbolSummary
}

type lot struct {
	price decimal.Decimal
	qty   decimal.Decimal
}

type book struct {
	lots   []lot
	pairs  int
	profit decimal.Decimal
}

// Summarize matches sells to buys per symbol, oldest lot first. A sell larger
// than the open lots only realizes the matched part; unmatched sells are
// ignored.
func Summarize(records []ledger.TradeRecord) Summary {
	books := map[string]*book{}
	for _, r := range records {
		b, ok := books[r.Symbol]
		if !ok {
			b = &book{}
			books[r.Symbol] = b
		}
		price := decimal.NewFromFloat(r.Price)
		qty := decimal.NewFromFloat(r.Quantity)

		switch r.Action {
		case ledger.Buy:
			b.lots = append(b.lots, lot{price: price, qty: qty})
		case ledger.Sell:
			matched := false
			for qty.IsPositive() && len(b.lots) > 0 {
				head := &b.lots[0]
				fill := decimal.Min(qty, head.qty)
				b.profit = b.profit.Add(price.Sub(head.price).Mul(fill))
				head.qty = head.qty.Sub(fill)
				qty = qty.Sub(fill)
				matched = true
				if !head.qty.IsPositive() {
					b.lots = b.lots[1:]
				}
			}
			if matched {
				b.pairs++
			}
		}
	}

	symbols := make([]string, 0, len(books))
	for symbol := range books {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var summary Summary
	total := decimal.Zero
	for _, symbol := range symbols {
		b := books[symbol]
		open := decimal.Zero
		for _, l := range b.lots {
			open = open.Add(l.qty)
		}
		profit, _ := b.profit.Float64()
		openQty, _ := open.Float64()
		summary.Symbols = append(summary.Symbols, SymbolSummary{
			Symbol:  symbol,
			Pairs:   b.pairs,
			Profit:  profit,
			OpenQty: openQty,
		})
		summary.Pairs += b.pairs
		total = total.Add(b.profit)
	}
	summary.Profit, _ = total.Float64()
	return summary
}

// FromLedger reads the full ledger and summarizes it.
func FromLedger(src Source) (Summary, error) {
	records, err := src.Records()
	if err != nil {
		return Summary{}, fmt.Errorf("read ledger for report: %w", err)
	}
	return Summarize(records), nil
}

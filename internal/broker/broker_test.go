package broker

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
)

func TestFillPrice(t *testing.T) {
	filled := decimal.RequireFromString("101.25")
	if price, ok := FillPrice(&alpaca.Order{FilledAvgPrice: &filled}); !ok || price != 101.25 {
		t.Fatalf("expected 101.25, got %v ok=%v", price, ok)
	}
	if _, ok := FillPrice(&alpaca.Order{}); ok {
		t.Fatalf("expected no price for unfilled order")
	}
	zero := decimal.Zero
	if _, ok := FillPrice(&alpaca.Order{FilledAvgPrice: &zero}); ok {
		t.Fatalf("expected zero fill price to be rejected")
	}
	if _, ok := FillPrice(nil); ok {
		t.Fatalf("expected no price for nil order")
	}
}

func TestPlaceOrderHonorsCanceledContext(t *testing.T) {
	client := New("key", "secret", "http://127.0.0.1:0", &http.Client{Timeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.MarketBuy(ctx, "ETH/USD", decimal.NewFromInt(1), "run-1")
	if !errors.Is(err, ErrOrderExecution) {
		t.Fatalf("expected ErrOrderExecution, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	client := New("key", "secret", "http://127.0.0.1:0", &http.Client{})
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestWaitForContext(t *testing.T) {
	if err := WaitForContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("expected timer to elapse, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WaitForContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

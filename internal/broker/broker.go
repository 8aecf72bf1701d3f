package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// ErrOrderExecution is returned when an order is rejected, fails, or no fill
// price can be determined for it.
var ErrOrderExecution = errors.New("order execution failed")

type OrderRequest struct {
	Symbol        string
	Qty           decimal.Decimal
	Side          alpaca.Side
	ClientOrderID string
}

type Fill struct {
	OrderID       string
	ClientOrderID string
	Status        string
	Qty           decimal.Decimal
	Price         float64
}

type Account struct {
	Status      string
	Equity      float64
	BuyingPower float64
}

type Client struct {
	client     *alpaca.Client
	data       *marketdata.Client
	httpClient *http.Client
	closeOnce  sync.Once
}

func New(apiKey, apiSecret, baseURL string, httpClient *http.Client) *Client {
	opts := alpaca.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		BaseURL:    baseURL,
		HTTPClient: httpClient,
	}
	return &Client{
		client: alpaca.NewClient(opts),
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:     apiKey,
			APISecret:  apiSecret,
			HTTPClient: httpClient,
		}),
		httpClient: httpClient,
	}
}

// Open starts the brokerage session by checking that the credentials resolve
// to an active account.
func (c *Client) Open(ctx context.Context) (Account, error) {
	acct, err := c.Account(ctx)
	if err != nil {
		return Account{}, fmt.Errorf("open brokerage session: %w", err)
	}
	if acct.Status != "ACTIVE" {
		return acct, fmt.Errorf("open brokerage session: account status %s", acct.Status)
	}
	slog.Info("brokerage session opened", "status", acct.Status, "equity", acct.Equity, "buying_power", acct.BuyingPower)
	return acct, nil
}

// Close ends the session. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.httpClient != nil {
			c.httpClient.CloseIdleConnections()
		}
		slog.Info("brokerage session closed")
	})
	return nil
}

func (c *Client) MarketBuy(ctx context.Context, symbol string, qty decimal.Decimal, clientOrderID string) (Fill, error) {
	return c.PlaceOrder(ctx, OrderRequest{Symbol: symbol, Qty: qty, Side: alpaca.Buy, ClientOrderID: clientOrderID})
}

func (c *Client) MarketSell(ctx context.Context, symbol string, qty decimal.Decimal, clientOrderID string) (Fill, error) {
	return c.PlaceOrder(ctx, OrderRequest{Symbol: symbol, Qty: qty, Side: alpaca.Sell, ClientOrderID: clientOrderID})
}

// PlaceOrder submits a good-til-cancelled market order and resolves its
// price from the fill, a re-read of the order, or the last crypto trade.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, fmt.Errorf("%w: %v", ErrOrderExecution, err)
	}
	qty := req.Qty
	orderReq := alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Qty:           &qty,
		Side:          req.Side,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.GTC,
		ClientOrderID: req.ClientOrderID,
	}

	order, err := c.client.PlaceOrder(orderReq)
	if err != nil {
		slog.Error("place order failed", "side", req.Side, "symbol", req.Symbol, "qty", req.Qty.String(), "error", err)
		return Fill{}, fmt.Errorf("%w: place %s %s: %v", ErrOrderExecution, req.Side, req.Symbol, err)
	}
	slog.Info("place order success", "order_id", order.ID, "side", req.Side, "symbol", req.Symbol, "qty", req.Qty.String(), "status", order.Status)

	price, ok := FillPrice(order)
	if !ok {
		if reread, err := c.client.GetOrder(order.ID); err == nil {
			order = reread
			price, ok = FillPrice(order)
		} else {
			slog.Warn("re-read order failed", "order_id", order.ID, "error", err)
		}
	}
	if !ok {
		trade, err := c.data.GetLatestCryptoTrade(req.Symbol, marketdata.GetLatestCryptoTradeRequest{})
		if err == nil && trade != nil && trade.Price > 0 {
			price, ok = trade.Price, true
			slog.Info("using last trade price", "order_id", order.ID, "symbol", req.Symbol, "price", price)
		}
	}
	if !ok {
		return Fill{}, fmt.Errorf("%w: no price for order %s on %s", ErrOrderExecution, order.ID, req.Symbol)
	}

	return Fill{
		OrderID:       order.ID,
		ClientOrderID: order.ClientOrderID,
		Status:        string(order.Status),
		Qty:           req.Qty,
		Price:         price,
	}, nil
}

// FillPrice returns the order's average fill price when the broker reported one.
func FillPrice(order *alpaca.Order) (float64, bool) {
	if order == nil || order.FilledAvgPrice == nil {
		return 0, false
	}
	price, _ := order.FilledAvgPrice.Float64()
	if price <= 0 {
		return 0, false
	}
	return price, true
}

func (c *Client) Account(ctx context.Context) (Account, error) {
	acct, err := c.client.GetAccount()
	if err != nil {
		slog.Error("fetch account failed", "error", err)
		return Account{}, err
	}
	equity, _ := acct.Equity.Float64()
	buyingPower, _ := acct.BuyingPower.Float64()

	slog.Info("account fetched", "equity", equity, "buying_power", buyingPower)
	return Account{Status: string(acct.Status), Equity: equity, BuyingPower: buyingPower}, nil
}

func WaitForContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

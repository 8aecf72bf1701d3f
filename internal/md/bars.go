package md

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"cryptobot/internal/indicator"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// ErrDataFetch covers failed or unusable market data responses.
var ErrDataFetch = errors.New("market data fetch failed")

type Bar struct {
	Symbol    string
	Timestamp time.Time
	Close     float64
}

// Client polls closing prices for crypto pairs.
type Client struct {
	client    *marketdata.Client
	timeframe marketdata.TimeFrame
	step      time.Duration
	lookback  int
	now       func() time.Time
}

func New(apiKey, apiSecret string, httpClient *http.Client, timeframe string, lookback int) (*Client, error) {
	tf, step, err := ParseTimeFrame(timeframe)
	if err != nil {
		return nil, err
	}
	opts := marketdata.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		HTTPClient: httpClient,
	}
	return &Client{
		client:    marketdata.NewClient(opts),
		timeframe: tf,
		step:      step,
		lookback:  lookback,
		now:       time.Now,
	}, nil
}

// Closes returns up to lookback closing prices for symbol, oldest first.
func (c *Client) Closes(ctx context.Context, symbol string) ([]indicator.Price, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end := c.now().UTC()
	// Twice the span so gaps in thin markets still yield a full lookback.
	start := end.Add(-2 * time.Duration(c.lookback) * c.step)

	bars, err := c.client.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
		TimeFrame: c.timeframe,
		Start:     start,
		End:       end,
	})
	if err != nil {
		slog.Error("fetch crypto bars failed", "symbol", symbol, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrDataFetch, symbol, err)
	}

	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		out = append(out, Bar{Symbol: symbol, Timestamp: b.Timestamp, Close: b.Close})
	}
	prices, err := ToPrices(out, c.lookback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	slog.Debug("crypto bars fetched", "symbol", symbol, "bars", len(prices), "timeframe", c.timeframe.String())
	return prices, nil
}

// ToPrices orders bars by time, drops unusable closes and keeps the most
// recent limit entries.
func ToPrices(bars []Bar, limit int) ([]indicator.Price, error) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	prices := make([]indicator.Price, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		prices = append(prices, indicator.Price{Timestamp: b.Timestamp, Close: b.Close})
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no bars returned", ErrDataFetch)
	}
	if limit > 0 && len(prices) > limit {
		prices = prices[len(prices)-limit:]
	}
	return prices, nil
}

// ParseTimeFrame maps a candle interval name to the API timeframe and its
// wall-clock length.
func ParseTimeFrame(value string) (marketdata.TimeFrame, time.Duration, error) {
	switch value {
	case "1Min":
		return marketdata.NewTimeFrame(1, marketdata.Min), time.Minute, nil
	case "5Min":
		return marketdata.NewTimeFrame(5, marketdata.Min), 5 * time.Minute, nil
	case "15Min":
		return marketdata.NewTimeFrame(15, marketdata.Min), 15 * time.Minute, nil
	case "30Min":
		return marketdata.NewTimeFrame(30, marketdata.Min), 30 * time.Minute, nil
	case "1Hour":
		return marketdata.NewTimeFrame(1, marketdata.Hour), time.Hour, nil
	case "4Hour":
		return marketdata.NewTimeFrame(4, marketdata.Hour), 4 * time.Hour, nil
	case "1Day":
		return marketdata.NewTimeFrame(1, marketdata.Day), 24 * time.Hour, nil
	default:
		return marketdata.TimeFrame{}, 0, fmt.Errorf("unsupported timeframe: %s", value)
	}
}

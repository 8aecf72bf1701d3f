// Package indicator computes Bollinger Bands and RSI over a closing-price series.
package indicator

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientData is returned when no row has every rolling window full.
var ErrInsufficientData = errors.New("insufficient data for indicator windows")

type Params struct {
	BBPeriod  int     `yaml:"bb_period"`
	BBStdDev  float64 `yaml:"bb_std_dev"`
	RSIPeriod int     `yaml:"rsi_period"`
}

func DefaultParams() Params {
	return Params{BBPeriod: 20, BBStdDev: 2, RSIPeriod: 14}
}

// MinBars is the shortest series that yields at least one snapshot.
func (p Params) MinBars() int {
	return max(p.BBPeriod, p.RSIPeriod)
}

func (p Params) Validate() error {
	if p.BBPeriod < 2 {
		return fmt.Errorf("bb_period must be >= 2")
	}
	if p.BBStdDev <= 0 {
		return fmt.Errorf("bb_std_dev must be > 0")
	}
	if p.RSIPeriod < 1 {
		return fmt.Errorf("rsi_period must be >= 1")
	}
	return nil
}

type Price struct {
	Timestamp time.Time
	Close     float64
}

// Snapshot is one fully populated indicator row.
type Snapshot struct {
	Timestamp time.Time
	Close     float64
	Mean      float64
	StdDev    float64
	Upper     float64
	Lower     float64
	RSI       float64
}

// Compute returns one snapshot per input row whose Bollinger and RSI windows
// are both full. Rows before that point are dropped, never reported.
func Compute(prices []Price, params Params) ([]Snapshot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(prices) < params.MinBars() {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(prices), params.MinBars())
	}

	closes := NewWindow(params.BBPeriod)
	gains := NewWindow(params.RSIPeriod)
	losses := NewWindow(params.RSIPeriod)

	out := make([]Snapshot, 0, len(prices)-params.MinBars()+1)
	for i, p := range prices {
		closes.Add(p.Close)

		// The first row has no predecessor; it contributes a zero move.
		delta := 0.0
		if i > 0 {
			delta = p.Close - prices[i-1].Close
		}
		gains.Add(max(delta, 0))
		losses.Add(max(-delta, 0))

		if !closes.Full() || !gains.Full() {
			continue
		}

		mean, std, err := closes.MeanStdDev()
		if err != nil {
			return nil, err
		}
		avgGain, _ := gains.Mean()
		avgLoss, _ := losses.Mean()

		out = append(out, Snapshot{
			Timestamp: p.Timestamp,
			Close:     p.Close,
			Mean:      mean,
			StdDev:    std,
			Upper:     mean + params.BBStdDev*std,
			Lower:     mean - params.BBStdDev*std,
			RSI:       RSI(avgGain, avgLoss),
		})
	}

	if len(out) == 0 {
		return nil, ErrInsufficientData
	}
	return out, nil
}

// RSI maps average gain and loss to the 0..100 oscillator. A window with no
// losses reads 100; a window with no movement at all reads 50.
func RSI(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Latest returns the most recent snapshot.
func Latest(snapshots []Snapshot) (Snapshot, error) {
	if len(snapshots) == 0 {
		return Snapshot{}, ErrInsufficientData
	}
	return snapshots[len(snapshots)-1], nil
}

package strategy

import "cryptobot/internal/indicator"

// BollingerRSI buys when price closes under the lower band while RSI is
// oversold, and sells when price closes over the upper band while RSI is
// overbought. Both legs must agree; everything else holds.
type BollingerRSI struct {
	Oversold   float64
	Overbought float64
}

func NewBollingerRSI(oversold, overbought float64) BollingerRSI {
	return BollingerRSI{Oversold: oversold, Overbought: overbought}
}

func (b BollingerRSI) Decide(snapshot indicator.Snapshot) Signal {
	if snapshot.Close < snapshot.Lower && snapshot.RSI < b.Oversold {
		return Signal{Action: Buy, Reason: "below_lower_band_oversold"}
	}
	if snapshot.Close > snapshot.Upper && snapshot.RSI > b.Overbought {
		return Signal{Action: Sell, Reason: "above_upper_band_overbought"}
	}
	return Signal{Action: Hold, Reason: "no_signal"}
}

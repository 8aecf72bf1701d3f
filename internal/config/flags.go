package config

import (
	"flag"
	"time"
)

// registerFlags defines the command-line surface. The returned appliers copy
// a flag's value into a Config and run only for flags set explicitly.
func registerFlags(fs *flag.FlagSet) map[string]func(*Config) {
	d := Defaults()
	apply := map[string]func(*Config){}

	str := func(name, def, usage string, set func(*Config, string)) {
		p := fs.String(name, def, usage)
		apply[name] = func(c *Config) { set(c, *p) }
	}
	num := func(name string, def float64, usage string, set func(*Config, float64)) {
		p := fs.Float64(name, def, usage)
		apply[name] = func(c *Config) { set(c, *p) }
	}
	integer := func(name string, def int, usage string, set func(*Config, int)) {
		p := fs.Int(name, def, usage)
		apply[name] = func(c *Config) { set(c, *p) }
	}
	boolean := func(name string, def bool, usage string, set func(*Config, bool)) {
		p := fs.Bool(name, def, usage)
		apply[name] = func(c *Config) { set(c, *p) }
	}
	duration := func(name string, def time.Duration, usage string, set func(*Config, time.Duration)) {
		p := fs.Duration(name, def, usage)
		apply[name] = func(c *Config) { set(c, *p) }
	}

	str("mode", string(d.Mode), "trading mode: paper or live", func(c *Config, v string) { c.Mode = Mode(v) })
	str("symbols", "", "comma separated crypto pairs, e.g. BTC/USD,ETH/USD", func(c *Config, v string) { c.Symbols = splitSymbols(v) })
	str("timeframe", d.Timeframe, "candle interval: 1Min, 5Min, 15Min, 30Min, 1Hour, 4Hour, 1Day", func(c *Config, v string) { c.Timeframe = v })
	integer("lookback", d.Lookback, "number of bars fetched per symbol", func(c *Config, v int) { c.Lookback = v })
	duration("poll-interval", d.PollInterval, "sleep between passes", func(c *Config, v time.Duration) { c.PollInterval = v })
	duration("request-timeout", d.RequestTimeout, "timeout for each API request", func(c *Config, v time.Duration) { c.RequestTimeout = v })

	integer("bb-period", d.Indicators.BBPeriod, "Bollinger Bands window", func(c *Config, v int) { c.Indicators.BBPeriod = v })
	num("bb-std-dev", d.Indicators.BBStdDev, "Bollinger Bands deviation multiplier", func(c *Config, v float64) { c.Indicators.BBStdDev = v })
	integer("rsi-period", d.Indicators.RSIPeriod, "RSI window", func(c *Config, v int) { c.Indicators.RSIPeriod = v })
	num("rsi-oversold", d.RSIOversold, "RSI buy threshold", func(c *Config, v float64) { c.RSIOversold = v })
	num("rsi-overbought", d.RSIOverbought, "RSI sell threshold", func(c *Config, v float64) { c.RSIOverbought = v })

	num("trade-qty", d.TradeQty, "quantity bought on a buy signal", func(c *Config, v float64) { c.TradeQty = v })
	num("profit-target", d.ProfitTargetPercent, "fractional gain over entry that triggers a partial sell", func(c *Config, v float64) { c.ProfitTargetPercent = v })
	num("partial-sell", d.PartialSellPercent, "fraction of the held quantity sold at the profit target", func(c *Config, v float64) { c.PartialSellPercent = v })
	num("keep-crypto", d.KeepCryptoPercent, "fraction of the opening quantity reserved from partial sells", func(c *Config, v float64) { c.KeepCryptoPercent = v })
	boolean("profit-take-once", d.ProfitTakeOnce, "partial sell once per crossing of the profit target", func(c *Config, v bool) { c.ProfitTakeOnce = v })
	boolean("enforce-reserve", d.EnforceReserve, "never partial sell below keep-crypto of the opening quantity", func(c *Config, v bool) { c.EnforceReserve = v })
	num("max-notional", d.MaxNotional, "max notional per buy order, 0 disables", func(c *Config, v float64) { c.MaxNotional = v })
	boolean("kill-switch", d.KillSwitch, "if true, never place orders", func(c *Config, v bool) { c.KillSwitch = v })

	str("ledger-driver", d.LedgerDriver, "trade ledger backend: csv or sqlite", func(c *Config, v string) { c.LedgerDriver = v })
	str("ledger-path", d.LedgerPath, "path to the trade ledger", func(c *Config, v string) { c.LedgerPath = v })
	str("log-path", d.LogPath, "path to the operational log, empty for stderr only", func(c *Config, v string) { c.LogPath = v })
	str("log-level", d.LogLevel, "log level: debug, info, warn, error", func(c *Config, v string) { c.LogLevel = v })
	str("decisions-path", d.DecisionsPath, "path to decisions log", func(c *Config, v string) { c.DecisionsPath = v })
	str("base-url", "", "brokerage base URL, derived from mode when empty", func(c *Config, v string) { c.BaseURL = v })

	return apply
}

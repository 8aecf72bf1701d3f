package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cryptobot/internal/indicator"
	"cryptobot/internal/md"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

const (
	PaperBaseURL = "https://paper-api.alpaca.markets"
	LiveBaseURL  = "https://api.alpaca.markets"
)

var DefaultSymbols = []string{
	"BTC/USD", "ETH/USD", "AVAX/USD", "LINK/USD", "BCH/USD",
	"UNI/USD", "LTC/USD", "XTZ/USD", "AAVE/USD", "SHIB/USD",
}

type Config struct {
	Mode           Mode          `yaml:"mode"`
	Symbols        []string      `yaml:"symbols"`
	Timeframe      string        `yaml:"timeframe"`
	Lookback       int           `yaml:"lookback"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Indicators    indicator.Params `yaml:"indicators"`
	RSIOversold   float64          `yaml:"rsi_oversold"`
	RSIOverbought float64          `yaml:"rsi_overbought"`

	TradeQty            float64 `yaml:"trade_qty"`
	ProfitTargetPercent float64 `yaml:"profit_target_percent"`
	PartialSellPercent  float64 `yaml:"partial_sell_percent"`
	KeepCryptoPercent   float64 `yaml:"keep_crypto_percent"`
	ProfitTakeOnce      bool    `yaml:"profit_take_once"`
	EnforceReserve      bool    `yaml:"enforce_reserve"`
	MaxNotional         float64 `yaml:"max_notional"`
	KillSwitch          bool    `yaml:"kill_switch"`

	LedgerDriver  string `yaml:"ledger_driver"`
	LedgerPath    string `yaml:"ledger_path"`
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	DecisionsPath string `yaml:"decisions_path"`

	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

func Defaults() Config {
	return Config{
		Mode:                ModePaper,
		Symbols:             append([]string(nil), DefaultSymbols...),
		Timeframe:           "1Min",
		Lookback:            100,
		PollInterval:        60 * time.Second,
		RequestTimeout:      30 * time.Second,
		Indicators:          indicator.DefaultParams(),
		RSIOversold:         30,
		RSIOverbought:       70,
		TradeQty:            1,
		ProfitTargetPercent: 0.01,
		PartialSellPercent:  0.5,
		KeepCryptoPercent:   0.1,
		LedgerDriver:        "csv",
		LedgerPath:          "trades.csv",
		LogPath:             "trade_log.log",
		LogLevel:            "info",
		DecisionsPath:       "decisions.ndjson",
	}
}

// Load resolves configuration from defaults, an optional YAML file, the
// environment and command-line flags, in increasing precedence.
func Load() (Config, error) {
	loadDotEnvIfPresent(".env")

	fs := flag.CommandLine
	var configPath string
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	flags := registerFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return Config{}, err
	}

	cfg := Defaults()
	if configPath != "" {
		if err := loadFile(configPath, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := flags[f.Name]; ok {
			apply(&cfg)
		}
	})

	if cfg.BaseURL == "" {
		cfg.BaseURL = PaperBaseURL
		if cfg.Mode == ModeLive {
			cfg.BaseURL = LiveBaseURL
		}
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.APISecret = v
	}
	if v := os.Getenv("APCA_API_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("BOT_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("BOT_SYMBOLS"); v != "" {
		cfg.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("BOT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BOT_LEDGER_PATH"); v != "" {
		cfg.LedgerPath = v
	}
	if v := os.Getenv("BOT_KILL_SWITCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BOT_KILL_SWITCH: %w", err)
		}
		cfg.KillSwitch = b
	}
	return nil
}

func loadDotEnvIfPresent(path string) {
	if err := loadDotEnv(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", path, err)
	}
}

// loadDotEnv sets variables from path without overriding ones already set.
func loadDotEnv(path string) error {
	return godotenv.Load(path)
}

func splitSymbols(value string) []string {
	var symbols []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, strings.ToUpper(s))
		}
	}
	return symbols
}

func validate(cfg Config) error {
	if cfg.Mode != ModePaper && cfg.Mode != ModeLive {
		return fmt.Errorf("invalid mode: %s", cfg.Mode)
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required")
	}
	if len(cfg.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if err := cfg.Indicators.Validate(); err != nil {
		return err
	}
	if _, _, err := md.ParseTimeFrame(cfg.Timeframe); err != nil {
		return err
	}
	if cfg.Lookback < cfg.Indicators.MinBars() {
		return fmt.Errorf("lookback must be >= %d", cfg.Indicators.MinBars())
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be > 0")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request-timeout must be > 0")
	}
	if cfg.RSIOversold <= 0 || cfg.RSIOverbought >= 100 || cfg.RSIOversold >= cfg.RSIOverbought {
		return fmt.Errorf("rsi thresholds must satisfy 0 < oversold < overbought < 100")
	}
	if cfg.TradeQty <= 0 {
		return fmt.Errorf("trade-qty must be > 0")
	}
	if cfg.ProfitTargetPercent <= 0 {
		return fmt.Errorf("profit-target must be > 0")
	}
	if cfg.PartialSellPercent <= 0 || cfg.PartialSellPercent > 1 {
		return fmt.Errorf("partial-sell must be in (0, 1]")
	}
	if cfg.KeepCryptoPercent < 0 || cfg.KeepCryptoPercent >= 1 {
		return fmt.Errorf("keep-crypto must be in [0, 1)")
	}
	if cfg.MaxNotional < 0 {
		return fmt.Errorf("max-notional must be >= 0")
	}
	if cfg.LedgerDriver != "csv" && cfg.LedgerDriver != "sqlite" {
		return fmt.Errorf("invalid ledger driver: %s", cfg.LedgerDriver)
	}
	if cfg.LedgerPath == "" {
		return fmt.Errorf("ledger-path is required")
	}
	return nil
}

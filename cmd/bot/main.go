package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptobot/internal/broker"
	"cryptobot/internal/config"
	"cryptobot/internal/engine"
	"cryptobot/internal/ledger"
	"cryptobot/internal/md"
	"cryptobot/internal/risk"
	"cryptobot/internal/state"
	"cryptobot/internal/strategy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("bot error: %v", err)
	}
}

// run owns every resource opened after config load so deferred closes always
// execute before main exits.
func run(cfg config.Config) error {
	logFile, err := setupLogging(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	prices, err := md.New(cfg.APIKey, cfg.APISecret, httpClient, cfg.Timeframe, cfg.Lookback)
	if err != nil {
		return fmt.Errorf("market data: %w", err)
	}

	runID := generateRunID()
	decisions, err := engine.NewDecisionLogger(cfg.DecisionsPath, runID)
	if err != nil {
		return fmt.Errorf("decision logger: %w", err)
	}
	defer func() {
		if err := decisions.Close(); err != nil {
			slog.Error("failed to close decision logger", "error", err)
		}
	}()

	trades, err := ledger.Open(ledger.Driver(cfg.LedgerDriver), cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	defer func() {
		if err := trades.Close(); err != nil {
			slog.Error("failed to close ledger", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)
	go func() {
		select {
		case <-signalChan:
			slog.Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	brokerClient := broker.New(cfg.APIKey, cfg.APISecret, cfg.BaseURL, httpClient)
	defer brokerClient.Close()
	if _, err := brokerClient.Open(ctx); err != nil {
		return fmt.Errorf("broker session: %w", err)
	}

	holdings := state.NewHoldings(state.Policy{
		ProfitTargetPercent: cfg.ProfitTargetPercent,
		PartialSellPercent:  cfg.PartialSellPercent,
		KeepPercent:         cfg.KeepCryptoPercent,
		TakeOnce:            cfg.ProfitTakeOnce,
		EnforceReserve:      cfg.EnforceReserve,
	})
	executor := engine.NewExecutor(brokerClient, trades, risk.Gate{}, engine.ExecutorOptions{
		RunID:       runID,
		MaxNotional: cfg.MaxNotional,
		KillSwitch:  cfg.KillSwitch,
	})
	engineImpl := engine.New(engine.Options{
		Symbols:      cfg.Symbols,
		Indicators:   cfg.Indicators,
		TradeQty:     decimal.NewFromFloat(cfg.TradeQty),
		PollInterval: cfg.PollInterval,
	}, prices, strategy.NewBollingerRSI(cfg.RSIOversold, cfg.RSIOverbought), holdings, executor, trades, decisions)

	slog.Info("starting bot", "run_id", runID, "mode", cfg.Mode, "symbols", cfg.Symbols, "timeframe", cfg.Timeframe, "poll_interval", cfg.PollInterval, "ledger", cfg.LedgerPath)
	if err := engineImpl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("engine stopped", "error", err)
	}

	if held := holdings.Symbols(); len(held) > 0 {
		slog.Info("open positions at shutdown", "symbols", held)
	}
	slog.Info("bot shutdown complete")
	return nil
}

// setupLogging sends text logs to stderr, and to the log file when path is
// set, at the given level. The returned file is nil for stderr-only logging.
func setupLogging(path, level string) (*os.File, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	var out io.Writer = os.Stderr
	var file *os.File
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		file = f
		out = io.MultiWriter(os.Stderr, file)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})))
	return file, nil
}

func generateRunID() string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	return timestamp + "-" + uuid.NewString()[:8]
}

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cryptobot/internal/config"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })
}

func TestSetupLoggingStderrOnly(t *testing.T) {
	restoreDefaultLogger(t)

	file, err := setupLogging("", "info")
	if err != nil {
		t.Fatalf("expected stderr-only logging, got %v", err)
	}
	if file != nil {
		t.Fatalf("expected no log file, got %s", file.Name())
	}
}

func TestSetupLoggingWritesFile(t *testing.T) {
	restoreDefaultLogger(t)
	path := filepath.Join(t.TempDir(), "trade_log.log")

	file, err := setupLogging(path, "debug")
	if err != nil {
		t.Fatalf("setup logging: %v", err)
	}
	slog.Debug("checking symbol", "symbol", "ETH/USD")
	if err := file.Close(); err != nil {
		t.Fatalf("close log file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "symbol=ETH/USD") {
		t.Fatalf("expected log line in file, got %q", string(data))
	}
}

func TestSetupLoggingRejectsUnknownLevel(t *testing.T) {
	restoreDefaultLogger(t)
	if _, err := setupLogging("", "verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestRunFailsBeforeOpeningResourcesOnBadTimeframe(t *testing.T) {
	restoreDefaultLogger(t)
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.APIKey = "key"
	cfg.APISecret = "secret"
	cfg.BaseURL = "http://127.0.0.1:0"
	cfg.Timeframe = "2Min"
	cfg.LogPath = ""
	cfg.LedgerPath = filepath.Join(dir, "trades.csv")
	cfg.DecisionsPath = filepath.Join(dir, "decisions.ndjson")

	if err := run(cfg); err == nil {
		t.Fatalf("expected unsupported timeframe error")
	}
	for _, path := range []string{cfg.LedgerPath, cfg.DecisionsPath} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s not to be created, stat err=%v", path, err)
		}
	}
}

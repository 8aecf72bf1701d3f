package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleTrades() []TradeRecord {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []TradeRecord{
		{Timestamp: Timestamp{at}, Symbol: "ETH/USD", Action: Buy, Price: 100, Quantity: 1},
		{Timestamp: Timestamp{at.Add(time.Minute)}, Symbol: "ETH/USD", Action: Sell, Price: 110.25, Quantity: 0.5},
	}
}

func TestCSVLedgerCreatesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	if _, err := NewCSVLedger(path); err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if string(data) != "timestamp,symbol,action,price,quantity\n" {
		t.Fatalf("unexpected header %q", string(data))
	}
}

func TestCSVLedgerAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	l, err := NewCSVLedger(path)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	for _, trade := range sampleTrades() {
		if err := l.Append(trade); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// Reopening must not rewrite the header over existing trades.
	reopened, err := NewCSVLedger(path)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	records, err := reopened.Records()
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	assertTrades(t, records)

	data, _ := os.ReadFile(path)
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Fatalf("expected header plus 2 lines, got %d lines", lines)
	}
}

func TestCSVLedgerReadFailureIsLedgerIO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	l, err := NewCSVLedger(path)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := l.Records(); !errors.Is(err, ErrLedgerIO) {
		t.Fatalf("expected ErrLedgerIO, got %v", err)
	}
}

func TestSQLiteLedgerAppendAndRead(t *testing.T) {
	l, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "trades.db"))
	if err != nil {
		t.Fatalf("open sqlite ledger: %v", err)
	}
	defer l.Close()

	for _, trade := range sampleTrades() {
		if err := l.Append(trade); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	records, err := l.Records()
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	assertTrades(t, records)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("parquet", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func assertTrades(t *testing.T, records []TradeRecord) {
	t.Helper()
	want := sampleTrades()
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i := range want {
		got := records[i]
		if !got.Timestamp.Equal(want[i].Timestamp.Time) || got.Symbol != want[i].Symbol ||
			got.Action != want[i].Action || got.Price != want[i].Price || got.Quantity != want[i].Quantity {
			t.Fatalf("record %d: expected %+v, got %+v", i, want[i], got)
		}
	}
}

func TestCSVLedgerReadsLegacyTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	contents := header + "\n" +
		"2024-05-01 12:00:00.123456,ETH/USD,buy,100,1\n" +
		"2024-05-01 12:05:00,ETH/USD,sell,110,1\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write ledger: %v", err)
	}
	l, err := NewCSVLedger(path)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}

	records, err := l.Records()
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	want := time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.Local)
	if !records[0].Timestamp.Equal(want) {
		t.Fatalf("expected %v, got %v", want, records[0].Timestamp.Time)
	}
	if records[1].Action != Sell || records[1].Price != 110 {
		t.Fatalf("unexpected second record %+v", records[1])
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	if err := ts.UnmarshalCSV("yesterday"); err == nil {
		t.Fatalf("expected parse error")
	}
}

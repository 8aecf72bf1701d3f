// Package ledger stores executed trades. The ledger is append-only and is the
// only input to performance reporting.
package ledger

import (
	"errors"
	"fmt"
	"time"
)

// ErrLedgerIO wraps every read or write failure on the trade ledger.
var ErrLedgerIO = errors.New("ledger io")

type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

// Timestamp is a time.Time that round-trips through a CSV cell.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalCSV() (string, error) {
	return t.UTC().Format(time.RFC3339Nano), nil
}

// legacyLayout is the zone-less local time found in older ledgers, e.g.
// "2024-05-01 12:00:00.123456".
const legacyLayout = "2006-01-02 15:04:05.999999999"

func (t *Timestamp) UnmarshalCSV(value string) error {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		legacy, legacyErr := time.ParseInLocation(legacyLayout, value, time.Local)
		if legacyErr != nil {
			return err
		}
		parsed = legacy
	}
	t.Time = parsed
	return nil
}

type TradeRecord struct {
	Timestamp Timestamp `csv:"timestamp"`
	Symbol    string    `csv:"symbol"`
	Action    Action    `csv:"action"`
	Price     float64   `csv:"price"`
	Quantity  float64   `csv:"quantity"`
}

type Ledger interface {
	Append(record TradeRecord) error
	Records() ([]TradeRecord, error)
	Close() error
}

type Driver string

const (
	DriverCSV    Driver = "csv"
	DriverSQLite Driver = "sqlite"
)

// Open returns the ledger for driver at path, creating it when absent.
func Open(driver Driver, path string) (Ledger, error) {
	switch driver {
	case DriverCSV, "":
		return NewCSVLedger(path)
	case DriverSQLite:
		return NewSQLiteLedger(path)
	default:
		return nil, fmt.Errorf("unsupported ledger driver: %s", driver)
	}
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrLedgerIO, op, err)
}

package ledger

import (
	"log/slog"
	"os"

	"github.com/gocarina/gocsv"
)

const header = "timestamp,symbol,action,price,quantity"

// CSVLedger keeps trades in a comma separated file with the header
// above. The file is opened per call.
type CSVLedger struct {
	path string
}

func NewCSVLedger(path string) (*CSVLedger, error) {
	l := &CSVLedger{path: path}
	if err := l.ensureHeader(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *CSVLedger) ensureHeader() error {
	info, err := os.Stat(l.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return ioError("stat ledger", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return ioError("create ledger", err)
	}
	defer file.Close()

	if _, err := file.WriteString(header + "\n"); err != nil {
		return ioError("write ledger header", err)
	}
	slog.Info("trade ledger created", "path", l.path)
	return nil
}

func (l *CSVLedger) Append(record TradeRecord) error {
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return ioError("open ledger for append", err)
	}
	if err := gocsv.MarshalWithoutHeaders(&[]TradeRecord{record}, file); err != nil {
		_ = file.Close()
		return ioError("append trade", err)
	}
	if err := file.Close(); err != nil {
		return ioError("close ledger", err)
	}
	return nil
}

func (l *CSVLedger) Records() ([]TradeRecord, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, ioError("open ledger", err)
	}
	defer file.Close()

	var records []TradeRecord
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		return nil, ioError("read ledger", err)
	}
	return records, nil
}

func (l *CSVLedger) Close() error {
	return nil
}

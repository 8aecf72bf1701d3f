package ledger

import (
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteLedger keeps trades in a single append-only table.
type SQLiteLedger struct {
	db *sql.DB
}

func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ioError("open sqlite", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, ioError("set WAL mode", err)
	}

	l := &SQLiteLedger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("sqlite ledger opened", "path", path)
	return l, nil
}

func (l *SQLiteLedger) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			symbol    TEXT NOT NULL,
			action    TEXT NOT NULL,
			price     REAL NOT NULL,
			quantity  REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol)`,
	}
	for _, s := range stmts {
		if _, err := l.db.Exec(s); err != nil {
			return ioError("migrate", err)
		}
	}
	return nil
}

func (l *SQLiteLedger) Append(record TradeRecord) error {
	_, err := l.db.Exec(`INSERT INTO trades (timestamp, symbol, action, price, quantity) VALUES (?,?,?,?,?)`,
		record.Timestamp.UTC().Format(time.RFC3339Nano), record.Symbol, string(record.Action),
		record.Price, record.Quantity,
	)
	if err != nil {
		return ioError("insert trade", err)
	}
	return nil
}

func (l *SQLiteLedger) Records() ([]TradeRecord, error) {
	rows, err := l.db.Query(`SELECT timestamp, symbol, action, price, quantity FROM trades ORDER BY id`)
	if err != nil {
		return nil, ioError("query trades", err)
	}
	defer rows.Close()

	var records []TradeRecord
	for rows.Next() {
		var (
			ts     string
			action string
			record TradeRecord
		)
		if err := rows.Scan(&ts, &record.Symbol, &action, &record.Price, &record.Quantity); err != nil {
			return nil, ioError("scan trade", err)
		}
		if err := record.Timestamp.UnmarshalCSV(ts); err != nil {
			return nil, ioError("parse trade timestamp", err)
		}
		record.Action = Action(action)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("iterate trades", err)
	}
	return records, nil
}

func (l *SQLiteLedger) Close() error {
	slog.Info("closing sqlite ledger")
	return l.db.Close()
}

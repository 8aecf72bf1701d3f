package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cryptobot/internal/strategy"
)

// Decision is one NDJSON line describing how a symbol was handled in a pass.
type Decision struct {
	RunID     string          `json:"run_id"`
	Timestamp time.Time       `json:"timestamp"`
	BarTime   time.Time       `json:"bar_time"`
	Symbol    string          `json:"symbol"`
	Close     float64         `json:"close,omitempty"`
	Lower     float64         `json:"lower_band,omitempty"`
	Upper     float64         `json:"upper_band,omitempty"`
	RSI       float64         `json:"rsi,omitempty"`
	Signal    strategy.Action `json:"signal,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Result    string          `json:"result"`
	Qty       string          `json:"qty,omitempty"`
	OrderIDs  []string        `json:"order_ids,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type DecisionLogger struct {
	runID  string
	file   *os.File
	writer *bufio.Writer
}

func NewDecisionLogger(path string, runID string) (*DecisionLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &DecisionLogger{
		runID:  runID,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (d *DecisionLogger) RunID() string {
	return d.runID
}

// Append writes decision and flushes. A nil logger discards.
func (d *DecisionLogger) Append(decision Decision) {
	if d == nil {
		return
	}
	decision.RunID = d.runID
	payload, err := json.Marshal(decision)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal decision: %v\n", err)
		return
	}
	if _, err := d.writer.Write(append(payload, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write decision: %v\n", err)
		return
	}
	if err := d.writer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush decision log: %v\n", err)
	}
}

func (d *DecisionLogger) Close() error {
	if d == nil {
		return nil
	}
	if err := d.writer.Flush(); err != nil {
		_ = d.file.Close()
		return err
	}
	return d.file.Close()
}

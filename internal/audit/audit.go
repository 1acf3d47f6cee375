// Package audit records every analytics run in logs/insight-log.csv.
package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cleared-dev/foresight/internal/id"
)

// Run outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Record is one row in the insight log.
type Record struct {
	Timestamp time.Time
	RunID     string
	Operation string
	Status    string
	Details   string
}

// Header is the CSV header for insight-log.csv.
const Header = "timestamp,run_id,operation,status,details"

const (
	numFields    = 5
	logDir       = "logs"
	logFile      = "insight-log.csv"
	colTimestamp = 0
	colRunID     = 1
	colOperation = 2
	colStatus    = 3
	colDetails   = 4
)

// NewRecord stamps a record with the current time and a fresh run ID.
func NewRecord(operation, status, details string) Record {
	now := time.Now().UTC()
	return Record{
		Timestamp: now,
		RunID:     id.NewAt(now),
		Operation: operation,
		Status:    status,
		Details:   details,
	}
}

// MarshalRecord converts a Record to a CSV row.
func MarshalRecord(r Record) []string {
	row := make([]string, numFields)
	row[colTimestamp] = r.Timestamp.UTC().Format(time.RFC3339)
	row[colRunID] = r.RunID
	row[colOperation] = r.Operation
	row[colStatus] = r.Status
	row[colDetails] = r.Details
	return row
}

// UnmarshalRecord converts a CSV row to a Record.
func UnmarshalRecord(row []string) (Record, error) {
	if len(row) != numFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(row))
	}
	ts, err := time.Parse(time.RFC3339, row[colTimestamp])
	if err != nil {
		return Record{}, fmt.Errorf("parsing timestamp %q: %w", row[colTimestamp], err)
	}
	return Record{
		Timestamp: ts,
		RunID:     row[colRunID],
		Operation: row[colOperation],
		Status:    row[colStatus],
		Details:   row[colDetails],
	}, nil
}

// Path returns the log file location under repoRoot.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, logDir, logFile)
}

// Append writes records to the log, creating the file and header if needed.
func Append(repoRoot string, records ...Record) error {
	if err := os.MkdirAll(filepath.Join(repoRoot, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(repoRoot)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening insight log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every record in the log. A missing log reads as empty.
func Read(repoRoot string) ([]Record, error) {
	f, err := os.Open(Path(repoRoot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening insight log: %w", err)
	}
	defer f.Close()

	return readRecords(f)
}

func readRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading insight log CSV: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := UnmarshalRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

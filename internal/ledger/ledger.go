// Package ledger keeps an append-only CSV record of generated documents. It
// is the audit trail for issued numbers, including numbers that were used for
// an output but could not be committed to the counter.
package ledger

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

	"github.com/gofrs/flock"
)

// DefaultPath is the ledger location relative to the project root.
const DefaultPath = "logs/ledger.csv"

// CounterStatus records what happened to the counter for one generation.
type CounterStatus string

const (
	// StatusCommitted: the number came from the counter and was persisted.
	StatusCommitted CounterStatus = "committed"
	// StatusCommitFailed: the number came from the counter, the output was
	// written, but persisting the counter failed. The number may be issued again.
	StatusCommitFailed CounterStatus = "commit-failed"
	// StatusManual: the document carried its own number.
	StatusManual CounterStatus = "manual"
)

// Entry is one row in the ledger.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Kind      string
	Number    string
	IssueDate string
	Customer  string
	Total     string
	Output    string
	Counter   CounterStatus
}

// Header is the CSV header for the ledger file.
const Header = "timestamp,run_id,type,number,issue_date,customer,total,output,counter"

const (
	numFields    = 9
	colTimestamp = 0
	colRunID     = 1
	colKind      = 2
	colNumber    = 3
	colIssueDate = 4
	colCustomer  = 5
	colTotal     = 6
	colOutput    = 7
	colCounter   = 8
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colKind] = e.Kind
	row[colNumber] = e.Number
	row[colIssueDate] = e.IssueDate
	row[colCustomer] = e.Customer
	row[colTotal] = e.Total
	row[colOutput] = e.Output
	row[colCounter] = string(e.Counter)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Kind:      record[colKind],
		Number:    record[colNumber],
		IssueDate: record[colIssueDate],
		Customer:  record[colCustomer],
		Total:     record[colTotal],
		Output:    record[colOutput],
		Counter:   CounterStatus(record[colCounter]),
	}, nil
}

// File is a ledger stored at Path.
type File struct {
	Path string
}

// Record appends e to the ledger file.
func (f File) Record(e Entry) error {
	return Append(f.Path, e)
}

// Append writes entries to the CSV file at path, creating the file, its
// directory and the header if needed. Writers are serialized by an advisory
// lock on <path>.lock so only one of them writes the header.
func Append(path string, entries ...Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	lk := flock.New(path + ".lock")
	if err := lk.Lock(); err != nil {
		return fmt.Errorf("locking ledger: %w", err)
	}
	defer lk.Unlock()

	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing ledger: %w", err)
	}
	return f.Sync()
}

// Read returns all entries of the ledger at path. A missing file has no entries.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

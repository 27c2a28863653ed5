// Package ingest reads transaction ledgers from CSV and rejects tables that
// would violate the analysis pipeline's input contract.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
)

// Required column names.
const (
	ColumnTransactionID = "transaction_id"
	ColumnSenderID      = "sender_id"
	ColumnReceiverID    = "receiver_id"
	ColumnAmount        = "amount"
	ColumnTimestamp     = "timestamp"
)

// RequiredColumns lists the header fields every ledger must carry.
var RequiredColumns = []string{ColumnTransactionID, ColumnSenderID, ColumnReceiverID, ColumnAmount, ColumnTimestamp}

var timestampLayouts = []string{
	domain.TimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// Stats describes the table that was read.
type Stats struct {
	RowsParsed       int      `json:"rowsParsed"`
	InvalidRows      int      `json:"invalidRows"`
	DuplicateTxCount int      `json:"duplicateTxCount"`
	Columns          []string `json:"columns"`
}

// ValidationError lists every contract violation found in a ledger.
type ValidationError struct {
	Errors []string
	Stats  Stats
}

func (e *ValidationError) Error() string {
	return "invalid ledger: " + strings.Join(e.Errors, "; ")
}

// ErrEmptyInput is returned when the reader carries no header row.
var ErrEmptyInput = errors.New("csv input is empty")

// ParseCSV reads a ledger with a header row. Malformed CSV is a plain error;
// well-formed CSV that breaks the ledger contract is a *ValidationError.
func ParseCSV(r io.Reader) ([]domain.Transaction, Stats, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, Stats{}, ErrEmptyInput
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	stats := Stats{Columns: make([]string, 0, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		stats.Columns = append(stats.Columns, name)
		columns[name] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, stats, &ValidationError{
			Errors: []string{fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", "))},
			Stats:  stats,
		}
	}

	var (
		txs          []domain.Transaction
		seen         = make(map[string]struct{})
		badAmounts   int
		badStamps    int
		missingValue int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read csv row %d: %w", stats.RowsParsed+1, err)
		}
		stats.RowsParsed++

		field := func(name string) string { return strings.TrimSpace(record[columns[name]]) }
		tx := domain.Transaction{
			ID:         field(ColumnTransactionID),
			SenderID:   field(ColumnSenderID),
			ReceiverID: field(ColumnReceiverID),
		}
		invalid := false

		if tx.ID == "" || tx.SenderID == "" || tx.ReceiverID == "" {
			missingValue++
			invalid = true
		}
		if tx.ID != "" {
			if _, dup := seen[tx.ID]; dup {
				stats.DuplicateTxCount++
			}
			seen[tx.ID] = struct{}{}
		}

		amount, err := decimal.NewFromString(field(ColumnAmount))
		if err != nil || !amount.IsPositive() {
			badAmounts++
			invalid = true
		}
		tx.Amount = amount

		ts, ok := parseTimestamp(field(ColumnTimestamp))
		if !ok {
			badStamps++
			invalid = true
		}
		tx.Timestamp = ts

		if invalid {
			stats.InvalidRows++
		}
		txs = append(txs, tx)
	}

	var problems []string
	if missingValue > 0 {
		problems = append(problems, fmt.Sprintf("Missing identifiers detected in %d rows.", missingValue))
	}
	if stats.DuplicateTxCount > 0 {
		problems = append(problems, fmt.Sprintf("Duplicate transaction_ids detected: %d duplicates found.", stats.DuplicateTxCount))
	}
	if badAmounts > 0 {
		problems = append(problems, fmt.Sprintf("Invalid amounts detected in %d rows (must be numeric and > 0).", badAmounts))
	}
	if badStamps > 0 {
		problems = append(problems, fmt.Sprintf("Invalid timestamps detected in %d rows.", badStamps))
	} else if msg, ok := firstOutOfOrder(txs); ok {
		problems = append(problems, msg)
	}

	if len(problems) > 0 {
		return nil, stats, &ValidationError{Errors: problems, Stats: stats}
	}
	return txs, stats, nil
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// firstOutOfOrder reports the first row whose timestamp precedes its predecessor.
func firstOutOfOrder(txs []domain.Transaction) (string, bool) {
	for i := 1; i < len(txs); i++ {
		if txs[i].Timestamp.Before(txs[i-1].Timestamp) {
			return fmt.Sprintf("Timestamps not sorted: row %d (%s) is earlier than row %d (%s). Please sort by timestamp.",
				i+1, txs[i].Timestamp.Format(domain.TimeLayout), i, txs[i-1].Timestamp.Format(domain.TimeLayout)), true
		}
	}
	return "", false
}

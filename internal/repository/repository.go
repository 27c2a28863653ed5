package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
	"github.com/vanshika/fintrace/ringwatch/internal/graph"
)

// ErrMissingID is returned when a run, ring, account or transaction lacks its key.
var ErrMissingID = errors.New("identifier is required")

// Repository encapsulates graph persistence operations.
type Repository struct {
	client graph.Client
	now    func() time.Time
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client, now: time.Now}
}

// SaveRun stores the run node that rings and flagged accounts hang off.
func (r *Repository) SaveRun(ctx context.Context, runID string, summary domain.Summary) error {
	if runID == "" {
		return fmt.Errorf("save run: %w", ErrMissingID)
	}

	stmt := graph.Statement{Cypher: saveRunCypher, Params: map[string]any{
		"runId": runID,
		"props": map[string]any{
			"createdAt":                 r.now().UTC().Format(time.RFC3339),
			"totalAccountsAnalyzed":     summary.TotalAccountsAnalyzed,
			"totalTransactions":         summary.TotalTransactions,
			"totalEdges":                summary.TotalEdges,
			"suspiciousAccountsFlagged": summary.SuspiciousAccountsFlagged,
			"fraudRingsDetected":        summary.FraudRingsDetected,
			"processingTimeSeconds":     summary.ProcessingTimeSeconds,
		},
	}}
	if _, err := r.client.ExecuteWrite(ctx, stmt); err != nil {
		return fmt.Errorf("save run %s: %w", runID, err)
	}
	return nil
}

// SaveRing stores a ring and links each member account to it.
func (r *Repository) SaveRing(ctx context.Context, runID string, ring domain.FraudRing) error {
	if runID == "" || ring.RingID == "" {
		return fmt.Errorf("save ring: %w", ErrMissingID)
	}

	props := map[string]any{
		"patternType": ring.PatternType,
		"riskScore":   ring.RiskScore,
		"memberCount": len(ring.MemberAccounts),
	}
	if w := ring.TimeWindow; w != nil {
		props["startTime"] = w.Start.Format(domain.TimeLayout)
		props["endTime"] = w.End.Format(domain.TimeLayout)
		props["durationHours"] = w.DurationHours
	}

	stmt := graph.Statement{Cypher: saveRingCypher, Params: map[string]any{
		"runId":   runID,
		"ringId":  ring.RingID,
		"props":   props,
		"members": append([]string(nil), ring.MemberAccounts...),
	}}
	if _, err := r.client.ExecuteWrite(ctx, stmt); err != nil {
		return fmt.Errorf("save ring %s: %w", ring.RingID, err)
	}
	return nil
}

// SaveAccount flags an account in a run with its score and patterns.
func (r *Repository) SaveAccount(ctx context.Context, runID string, acc domain.SuspiciousAccount) error {
	if runID == "" || acc.AccountID == "" {
		return fmt.Errorf("save account: %w", ErrMissingID)
	}

	stmt := graph.Statement{Cypher: saveAccountCypher, Params: map[string]any{
		"runId":  runID,
		"userId": acc.AccountID,
		"props": map[string]any{
			"suspicionScore":   acc.SuspicionScore,
			"detectedPatterns": append([]string(nil), acc.DetectedPatterns...),
			"ringId":           acc.RingID,
		},
	}}
	if _, err := r.client.ExecuteWrite(ctx, stmt); err != nil {
		return fmt.Errorf("save account %s: %w", acc.AccountID, err)
	}
	return nil
}

// SaveTransactions writes the ledger as SENT_TO edges in one transaction.
func (r *Repository) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(txs))
	for _, tx := range txs {
		if tx.ID == "" || tx.SenderID == "" || tx.ReceiverID == "" {
			return fmt.Errorf("save transactions: %w", ErrMissingID)
		}
		rows = append(rows, map[string]any{
			"transactionId": tx.ID,
			"senderId":      tx.SenderID,
			"receiverId":    tx.ReceiverID,
			"amount":        tx.Amount.String(),
			"timestamp":     tx.Timestamp.UTC().Format(domain.TimeLayout),
		})
	}

	stmt := graph.Statement{Cypher: saveTransactionsCypher, Params: map[string]any{"rows": rows}}
	if _, err := r.client.ExecuteWrite(ctx, stmt); err != nil {
		return fmt.Errorf("save %d transactions: %w", len(rows), err)
	}
	return nil
}

// LoadTransactions reads every SENT_TO edge back as a ledger ordered by time.
func (r *Repository) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	res, err := r.client.ExecuteRead(ctx, graph.Statement{Cypher: loadTransactionsCypher})
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(res.Records))
	for i, rec := range res.Records {
		tx, err := transactionFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("load transactions: record %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp.Before(txs[j].Timestamp) })
	return txs, nil
}

func transactionFromRecord(rec graph.Record) (domain.Transaction, error) {
	var tx domain.Transaction
	var ok bool
	if tx.ID, ok = rec.StringValue("transactionId"); !ok || tx.ID == "" {
		return tx, ErrMissingID
	}
	if tx.SenderID, ok = rec.StringValue("senderId"); !ok || tx.SenderID == "" {
		return tx, ErrMissingID
	}
	if tx.ReceiverID, ok = rec.StringValue("receiverId"); !ok || tx.ReceiverID == "" {
		return tx, ErrMissingID
	}

	amount, err := toDecimal(rec["amount"])
	if err != nil {
		return tx, fmt.Errorf("transaction %s amount: %w", tx.ID, err)
	}
	tx.Amount = amount

	ts, err := toTime(rec["timestamp"])
	if err != nil {
		return tx, fmt.Errorf("transaction %s timestamp: %w", tx.ID, err)
	}
	tx.Timestamp = ts
	return tx, nil
}

func toDecimal(val any) (decimal.Decimal, error) {
	switch v := val.(type) {
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported type %T", val)
	}
}

func toTime(val any) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		if ts, err := time.Parse(domain.TimeLayout, v); err == nil {
			return ts, nil
		}
		return time.Parse(time.RFC3339, v)
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", val)
	}
}

const saveRunCypher = `
MERGE (run:AnalysisRun {runId: $runId})
SET run += $props
`

const saveRingCypher = `
MATCH (run:AnalysisRun {runId: $runId})
MERGE (ring:FraudRing {runId: $runId, ringId: $ringId})
SET ring += $props
MERGE (ring)-[:DETECTED_IN]->(run)
WITH ring
UNWIND $members AS memberId
MERGE (u:User {userId: memberId})
MERGE (u)-[:MEMBER_OF]->(ring)
`

const saveAccountCypher = `
MATCH (run:AnalysisRun {runId: $runId})
MERGE (u:User {userId: $userId})
MERGE (u)-[f:FLAGGED_IN]->(run)
SET f += $props
`

const saveTransactionsCypher = `
UNWIND $rows AS row
MERGE (sender:User {userId: row.senderId})
MERGE (receiver:User {userId: row.receiverId})
MERGE (sender)-[st:SENT_TO {transactionId: row.transactionId}]->(receiver)
SET st.amount = row.amount,
	st.timestamp = row.timestamp
`

const loadTransactionsCypher = `
MATCH (sender:User)-[st:SENT_TO]->(receiver:User)
RETURN st.transactionId AS transactionId,
	sender.userId AS senderId,
	receiver.userId AS receiverId,
	st.amount AS amount,
	st.timestamp AS timestamp
ORDER BY st.timestamp, st.transactionId
`

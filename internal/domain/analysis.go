package domain

import (
	"encoding/json"
	"time"
)

// PatternType labels the detector that flagged an account.
type PatternType string

const (
	PatternCycle      PatternType = "cycle"
	PatternShellChain PatternType = "shell_chain"
	PatternSmurfing   PatternType = "smurfing"
)

// RingNone is the ring id reported for accounts outside every ring.
const RingNone = "NONE"

// TimeLayout is the wall-clock layout used in report time windows.
const TimeLayout = "2006-01-02 15:04:05"

// Detection groups the node sequences produced by one detector.
type Detection struct {
	Type     PatternType
	Patterns [][]string
}

// AccountRecord is the raw scoring input for one account.
type AccountRecord struct {
	AccountID string
	BaseScore float64
	Patterns  map[PatternType]struct{}
}

// SuspiciousAccount is a finalized account entry in the report.
type SuspiciousAccount struct {
	AccountID        string   `json:"account_id"`
	SuspicionScore   float64  `json:"suspicion_score"`
	DetectedPatterns []string `json:"detected_patterns"`
	RingID           string   `json:"ring_id"`
}

// TimeWindow spans the first and last transaction touching a ring.
type TimeWindow struct {
	Start         time.Time
	End           time.Time
	DurationHours float64
}

// MarshalJSON renders the window with the report time layout.
func (w TimeWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StartTime     string  `json:"start_time"`
		EndTime       string  `json:"end_time"`
		DurationHours float64 `json:"duration_hours"`
	}{
		StartTime:     w.Start.Format(TimeLayout),
		EndTime:       w.End.Format(TimeLayout),
		DurationHours: w.DurationHours,
	})
}

// FraudRing is a connected group of accounts linked by detected patterns.
type FraudRing struct {
	RingID         string      `json:"ring_id"`
	MemberAccounts []string    `json:"member_accounts"`
	PatternType    string      `json:"pattern_type"`
	RiskScore      float64     `json:"risk_score"`
	TimeWindow     *TimeWindow `json:"time_window"`
}

// Summary aggregates run-level counters.
type Summary struct {
	TotalAccountsAnalyzed     int     `json:"total_accounts_analyzed"`
	TotalTransactions         int     `json:"total_transactions"`
	TotalEdges                int     `json:"total_edges"`
	SuspiciousAccountsFlagged int     `json:"suspicious_accounts_flagged"`
	FraudRingsDetected        int     `json:"fraud_rings_detected"`
	ProcessingTimeSeconds     float64 `json:"processing_time_seconds"`
}

// Report is the final output of one analysis run.
type Report struct {
	RunID              string              `json:"-"`
	SuspiciousAccounts []SuspiciousAccount `json:"suspicious_accounts"`
	FraudRings         []FraudRing         `json:"fraud_rings"`
	Summary            Summary             `json:"summary"`
}

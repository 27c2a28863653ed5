package scoring

import (
	"sort"
	"time"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
)

// ReportInput collects everything Assemble needs for one run.
type ReportInput struct {
	Accounts       []domain.AccountRecord
	Rings          []domain.FraudRing
	Transactions   []domain.Transaction
	TotalAccounts  int
	TotalEdges     int
	ProcessingTime time.Duration
}

// Assemble reinforces account scores, attributes accounts to rings, computes
// ring time windows and fills the summary block.
//
// Accounts are ordered by descending score with ascending account id as the
// tie-break, so equal scores never produce nondeterministic output.
func Assemble(in ReportInput) domain.Report {
	ringOf := AccountRingMap(in.Rings)

	accounts := make([]domain.SuspiciousAccount, 0, len(in.Accounts))
	for _, rec := range in.Accounts {
		patterns := make([]string, 0, len(rec.Patterns))
		for p := range rec.Patterns {
			patterns = append(patterns, string(p))
		}
		sort.Strings(patterns)

		ringID, ok := ringOf[rec.AccountID]
		if !ok {
			ringID = domain.RingNone
		}
		accounts = append(accounts, domain.SuspiciousAccount{
			AccountID:        rec.AccountID,
			SuspicionScore:   Reinforce(len(rec.Patterns), rec.BaseScore),
			DetectedPatterns: patterns,
			RingID:           ringID,
		})
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].SuspicionScore != accounts[j].SuspicionScore {
			return accounts[i].SuspicionScore > accounts[j].SuspicionScore
		}
		return accounts[i].AccountID < accounts[j].AccountID
	})

	rings := make([]domain.FraudRing, len(in.Rings))
	copy(rings, in.Rings)
	windows := TimeWindows(in.Transactions, rings)
	for i := range rings {
		rings[i].TimeWindow = windows[i]
	}

	return domain.Report{
		SuspiciousAccounts: accounts,
		FraudRings:         rings,
		Summary: domain.Summary{
			TotalAccountsAnalyzed:     in.TotalAccounts,
			TotalTransactions:         len(in.Transactions),
			TotalEdges:                in.TotalEdges,
			SuspiciousAccountsFlagged: len(accounts),
			FraudRingsDetected:        len(rings),
			ProcessingTimeSeconds:     round2(in.ProcessingTime.Seconds()),
		},
	}
}

// AccountRingMap flattens ring membership into account id -> ring id.
func AccountRingMap(rings []domain.FraudRing) map[string]string {
	m := make(map[string]string)
	for _, ring := range rings {
		for _, acc := range ring.MemberAccounts {
			m[acc] = ring.RingID
		}
	}
	return m
}

// TimeWindows returns, per ring, the span of every transaction whose sender
// or receiver is a member; nil when no transaction touches the ring.
func TimeWindows(txs []domain.Transaction, rings []domain.FraudRing) []*domain.TimeWindow {
	owner := make(map[string]int)
	for i, ring := range rings {
		for _, acc := range ring.MemberAccounts {
			owner[acc] = i
		}
	}

	windows := make([]*domain.TimeWindow, len(rings))
	touch := func(idx int, ts time.Time) {
		w := windows[idx]
		if w == nil {
			windows[idx] = &domain.TimeWindow{Start: ts, End: ts}
			return
		}
		if ts.Before(w.Start) {
			w.Start = ts
		}
		if ts.After(w.End) {
			w.End = ts
		}
	}

	for _, tx := range txs {
		si, sok := owner[tx.SenderID]
		if sok {
			touch(si, tx.Timestamp)
		}
		if ri, ok := owner[tx.ReceiverID]; ok && (!sok || ri != si) {
			touch(ri, tx.Timestamp)
		}
	}

	for _, w := range windows {
		if w != nil {
			w.DurationHours = round2(w.End.Sub(w.Start).Hours())
		}
	}
	return windows
}

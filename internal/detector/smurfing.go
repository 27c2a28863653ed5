package detector

import (
	"sort"
	"time"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
	"github.com/vanshika/fintrace/ringwatch/internal/txgraph"
)

// Smurfing flags receivers with at least minTxs inbound transfers whose
// earliest minTxs arrive within window (inclusive). Receivers are returned in
// ascending id order, each as a single-account pattern.
func Smurfing(txs []domain.Transaction, minTxs int, window time.Duration) [][]string {
	if minTxs <= 0 {
		return nil
	}

	inbound := make(map[string][]time.Time)
	for _, tx := range txgraph.SortByTimestamp(txs) {
		inbound[tx.ReceiverID] = append(inbound[tx.ReceiverID], tx.Timestamp)
	}

	receivers := make([]string, 0, len(inbound))
	for id := range inbound {
		receivers = append(receivers, id)
	}
	sort.Strings(receivers)

	var flagged [][]string
	for _, id := range receivers {
		stamps := inbound[id]
		if len(stamps) < minTxs {
			continue
		}
		if stamps[minTxs-1].Sub(stamps[0]) <= window {
			flagged = append(flagged, []string{id})
		}
	}
	return flagged
}

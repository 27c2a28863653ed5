package txgraph

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
)

func tx(id, from, to string, amount int64, ts time.Time) domain.Transaction {
	return domain.Transaction{ID: id, SenderID: from, ReceiverID: to, Amount: decimal.NewFromInt(amount), Timestamp: ts}
}

func TestBuild_CollapsesEdgesToLatestTransaction(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	// Inserted out of order: the later transfer must win regardless of input position.
	txs := []domain.Transaction{
		tx("T2", "A", "B", 250, base.Add(2*time.Hour)),
		tx("T1", "A", "B", 100, base),
		tx("T3", "B", "C", 75, base.Add(time.Hour)),
	}

	g := Build(txs)

	if g.NodeCount() != 3 {
		t.Fatalf("expected 3 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("expected 2 edges, got %d", g.EdgeCount())
	}

	e, ok := g.Edge("A", "B")
	if !ok {
		t.Fatalf("expected edge A->B")
	}
	if !e.Amount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected latest amount 250, got %s", e.Amount)
	}
	if !e.Timestamp.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("expected latest timestamp, got %s", e.Timestamp)
	}
	if _, ok := g.Edge("B", "A"); ok {
		t.Errorf("edges must be directed")
	}
}

func TestBuild_Degrees(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := Build([]domain.Transaction{
		tx("T1", "A", "B", 10, base),
		tx("T2", "C", "B", 10, base),
		tx("T3", "B", "D", 10, base),
		tx("T4", "B", "D", 10, base.Add(time.Minute)),
		tx("T5", "E", "E", 10, base),
	})

	cases := map[string]int{"A": 1, "B": 3, "C": 1, "D": 1, "E": 2}
	for id, want := range cases {
		if got := g.Degree(id); got != want {
			t.Errorf("degree(%s): want %d got %d", id, want, got)
		}
	}
	if g.InDegree("B") != 2 || g.OutDegree("B") != 1 {
		t.Errorf("unexpected in/out for B: %d/%d", g.InDegree("B"), g.OutDegree("B"))
	}
	if got := g.Successors("E"); len(got) != 1 || got[0] != "E" {
		t.Errorf("self-loop must be kept, got %v", got)
	}
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil)
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Fatalf("expected empty graph, got %d nodes %d edges", g.NodeCount(), g.EdgeCount())
	}
	if len(g.Nodes()) != 0 {
		t.Fatalf("expected no nodes")
	}
	if g.Index("missing") != -1 {
		t.Fatalf("expected -1 for unknown node")
	}
}

func TestSortByTimestamp_StableAndNonMutating(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		tx("late", "A", "B", 1, base.Add(time.Hour)),
		tx("tie-1", "A", "B", 1, base),
		tx("tie-2", "A", "B", 1, base),
	}
	sorted := SortByTimestamp(txs)
	if sorted[0].ID != "tie-1" || sorted[1].ID != "tie-2" || sorted[2].ID != "late" {
		t.Fatalf("unexpected order: %s %s %s", sorted[0].ID, sorted[1].ID, sorted[2].ID)
	}
	if txs[0].ID != "late" {
		t.Fatalf("input slice must not be reordered")
	}
}

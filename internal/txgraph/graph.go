package txgraph

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
)

// Edge carries the attributes of the latest transaction between two accounts.
type Edge struct {
	From      string
	To        string
	Amount    decimal.Decimal
	Timestamp time.Time
}

type edgeKey struct {
	from, to string
}

// Graph is a directed account graph. Repeated transfers between the same
// ordered pair collapse into one edge. Graph is read-only after Build.
type Graph struct {
	nodes     []string
	index     map[string]int
	edges     map[edgeKey]*Edge
	succ      map[string][]string
	inDegree  map[string]int
	outDegree map[string]int
}

// Build inserts transactions in ascending timestamp order so that later
// transfers overwrite the amount and timestamp of an existing edge.
func Build(txs []domain.Transaction) *Graph {
	sorted := SortByTimestamp(txs)

	g := &Graph{
		index:     make(map[string]int),
		edges:     make(map[edgeKey]*Edge),
		succ:      make(map[string][]string),
		inDegree:  make(map[string]int),
		outDegree: make(map[string]int),
	}

	seen := make(map[string]struct{})
	for _, tx := range sorted {
		seen[tx.SenderID] = struct{}{}
		seen[tx.ReceiverID] = struct{}{}

		key := edgeKey{from: tx.SenderID, to: tx.ReceiverID}
		if e, ok := g.edges[key]; ok {
			e.Amount = tx.Amount
			e.Timestamp = tx.Timestamp
			continue
		}
		g.edges[key] = &Edge{From: tx.SenderID, To: tx.ReceiverID, Amount: tx.Amount, Timestamp: tx.Timestamp}
		g.succ[tx.SenderID] = append(g.succ[tx.SenderID], tx.ReceiverID)
		g.outDegree[tx.SenderID]++
		g.inDegree[tx.ReceiverID]++
	}

	g.nodes = make([]string, 0, len(seen))
	for id := range seen {
		g.nodes = append(g.nodes, id)
	}
	sort.Strings(g.nodes)
	for i, id := range g.nodes {
		g.index[id] = i
	}
	for id := range g.succ {
		sort.Strings(g.succ[id])
	}
	return g
}

// SortByTimestamp returns a copy of txs ordered by timestamp. Ties keep input order.
func SortByTimestamp(txs []domain.Transaction) []domain.Transaction {
	out := append([]domain.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Nodes returns account ids in ascending order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Index returns the position of id in Nodes, or -1.
func (g *Graph) Index(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Successors returns the receivers of id in ascending order.
// The returned slice must not be modified.
func (g *Graph) Successors(id string) []string {
	return g.succ[id]
}

// Edge looks up the edge from -> to.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	e, ok := g.edges[edgeKey{from: from, to: to}]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Degree is in-degree plus out-degree; a self-loop counts twice.
func (g *Graph) Degree(id string) int {
	return g.inDegree[id] + g.outDegree[id]
}

// InDegree is the number of distinct senders paying id.
func (g *Graph) InDegree(id string) int { return g.inDegree[id] }

// OutDegree is the number of distinct receivers id pays.
func (g *Graph) OutDegree(id string) int { return g.outDegree[id] }

// NodeCount is the number of distinct accounts.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount is the number of distinct sender/receiver pairs.
func (g *Graph) EdgeCount() int { return len(g.edges) }

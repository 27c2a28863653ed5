package detector

import "github.com/vanshika/fintrace/ringwatch/internal/txgraph"

// Cycles enumerates every simple directed cycle whose length lies in
// [minLen, maxLen]. Each cycle is reported once, rotated so that its
// lowest-ordered account comes first.
//
// The search only descends to accounts ordered after the start account and
// never deeper than maxLen, so the cost is bounded by the length cap rather
// than by the total number of cycles in the graph.
func Cycles(g *txgraph.Graph, minLen, maxLen int) [][]string {
	if maxLen <= 0 || minLen > maxLen {
		return nil
	}

	var cycles [][]string
	path := make([]string, 0, maxLen)
	onPath := make(map[string]bool, maxLen)

	var visit func(start string, startIdx int, node string)
	visit = func(start string, startIdx int, node string) {
		for _, next := range g.Successors(node) {
			if next == start {
				if len(path) >= minLen {
					cycles = append(cycles, append([]string(nil), path...))
				}
				continue
			}
			if len(path) >= maxLen || onPath[next] || g.Index(next) <= startIdx {
				continue
			}
			path = append(path, next)
			onPath[next] = true
			visit(start, startIdx, next)
			onPath[next] = false
			path = path[:len(path)-1]
		}
	}

	for idx, start := range g.Nodes() {
		path = append(path[:0], start)
		onPath[start] = true
		visit(start, idx, start)
		onPath[start] = false
	}
	return cycles
}

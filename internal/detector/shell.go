package detector

import "github.com/vanshika/fintrace/ringwatch/internal/txgraph"

// ShellChains reports, for every source account, the breadth-first shortest
// path to each account reachable in minHops..maxHops hops whose interior
// accounts all have degree at most maxInteriorDegree.
//
// The same chain may be reported from several sources; the ring merger
// collapses them.
func ShellChains(g *txgraph.Graph, minHops, maxHops, maxInteriorDegree int) [][]string {
	if maxHops <= 0 || minHops > maxHops {
		return nil
	}

	var chains [][]string
	for _, source := range g.Nodes() {
		for _, path := range shortestPaths(g, source, maxHops) {
			if len(path)-1 < minHops {
				continue
			}
			if passThrough(g, path, maxInteriorDegree) {
				chains = append(chains, path)
			}
		}
	}
	return chains
}

// shortestPaths runs a BFS from source with a depth cutoff and returns one
// shortest path per discovered account, in discovery order. Neighbours are
// expanded in ascending id order so the chosen path is deterministic.
func shortestPaths(g *txgraph.Graph, source string, cutoff int) [][]string {
	parent := map[string]string{source: ""}
	depth := map[string]int{source: 0}
	order := []string{}

	frontier := []string{source}
	for level := 1; level <= cutoff && len(frontier) > 0; level++ {
		var next []string
		for _, node := range frontier {
			for _, succ := range g.Successors(node) {
				if _, seen := depth[succ]; seen {
					continue
				}
				depth[succ] = level
				parent[succ] = node
				order = append(order, succ)
				next = append(next, succ)
			}
		}
		frontier = next
	}

	paths := make([][]string, 0, len(order))
	for _, target := range order {
		path := make([]string, depth[target]+1)
		for i, node := len(path)-1, target; i >= 0; i-- {
			path[i] = node
			node = parent[node]
		}
		paths = append(paths, path)
	}
	return paths
}

func passThrough(g *txgraph.Graph, path []string, maxDegree int) bool {
	for _, node := range path[1 : len(path)-1] {
		if g.Degree(node) > maxDegree {
			return false
		}
	}
	return true
}

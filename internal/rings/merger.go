// Package rings consolidates overlapping pattern detections into fraud rings.
package rings

import (
	"fmt"
	"sort"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
)

const (
	// StructuralPatternType labels every ring produced by Merge.
	StructuralPatternType = "structural"
	// StructuralRiskScore is the fixed risk assigned to merged rings.
	StructuralRiskScore = 80.0
)

// Merge unions consecutive accounts of every pattern and emits one ring per
// connected component, members sorted ascending.
//
// Ring ids are numbered RING_001, RING_002, ... in the order each component's
// first account appears while scanning patterns front to back. The numbering
// only reflects input order; it carries no meaning about risk or size and may
// change when detector output order changes.
func Merge(patterns [][]string) []domain.FraudRing {
	uf := NewUnionFind()
	for _, p := range patterns {
		for i := 0; i+1 < len(p); i++ {
			uf.Union(p[i], p[i+1])
		}
	}

	var roots []string
	members := make(map[string]map[string]struct{})
	for _, p := range patterns {
		for _, node := range p {
			root := uf.Find(node)
			set, ok := members[root]
			if !ok {
				set = make(map[string]struct{})
				members[root] = set
				roots = append(roots, root)
			}
			set[node] = struct{}{}
		}
	}

	out := make([]domain.FraudRing, 0, len(roots))
	for i, root := range roots {
		accounts := make([]string, 0, len(members[root]))
		for id := range members[root] {
			accounts = append(accounts, id)
		}
		sort.Strings(accounts)
		out = append(out, domain.FraudRing{
			RingID:         fmt.Sprintf("RING_%03d", i+1),
			MemberAccounts: accounts,
			PatternType:    StructuralPatternType,
			RiskScore:      StructuralRiskScore,
		})
	}
	return out
}

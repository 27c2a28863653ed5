// Package scoring turns detections into reinforced per-account scores and
// assembles the final analysis report.
package scoring

import (
	"math"
	"sort"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
)

// RiskLevel is a band derived from a suspicion score.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
)

const (
	maxScore          = 100.0
	corroborationTwo  = 10.0
	corroborationMore = 5.0
)

// Weights are the base suspicion scores per pattern type.
type Weights struct {
	Cycle      float64 `yaml:"cycle"`
	ShellChain float64 `yaml:"shell_chain"`
	Smurfing   float64 `yaml:"smurfing"`
}

// DefaultWeights returns the standard base scores.
func DefaultWeights() Weights {
	return Weights{Cycle: 60, ShellChain: 50, Smurfing: 55}
}

func (w Weights) of(p domain.PatternType) float64 {
	switch p {
	case domain.PatternCycle:
		return w.Cycle
	case domain.PatternShellChain:
		return w.ShellChain
	case domain.PatternSmurfing:
		return w.Smurfing
	default:
		return 0
	}
}

// Tag builds one account record per account appearing in any detection. The
// base score is the highest weight among the account's pattern types.
// Records are ordered by account id.
func Tag(detections []domain.Detection, w Weights) []domain.AccountRecord {
	byID := make(map[string]*domain.AccountRecord)
	for _, d := range detections {
		for _, pattern := range d.Patterns {
			for _, id := range pattern {
				rec, ok := byID[id]
				if !ok {
					rec = &domain.AccountRecord{AccountID: id, Patterns: make(map[domain.PatternType]struct{})}
					byID[id] = rec
				}
				rec.Patterns[d.Type] = struct{}{}
				rec.BaseScore = math.Max(rec.BaseScore, w.of(d.Type))
			}
		}
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.AccountRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, *byID[id])
	}
	return out
}

// Reinforce rewards corroboration across distinct pattern types: +10 for two
// types, +15 for three or more. The result is clamped to [0, 100].
func Reinforce(distinctPatterns int, base float64) float64 {
	score := base
	if distinctPatterns >= 2 {
		score += corroborationTwo
	}
	if distinctPatterns >= 3 {
		score += corroborationMore
	}
	return math.Min(math.Max(score, 0), maxScore)
}

// ClassifyRisk maps a score to its band; each lower bound is inclusive.
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score >= 85:
		return RiskCritical
	case score >= 65:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Package detector finds structural laundering patterns in a transaction graph.
//
// Every detector is a pure function over an immutable graph or ledger, so
// callers may run them concurrently without coordination.
package detector

import "time"

// Thresholds are the policy constants used by the detectors.
type Thresholds struct {
	CycleMinLength int `yaml:"cycle_min_length"`
	CycleMaxLength int `yaml:"cycle_max_length"`

	// ShellMaxHops is the BFS cutoff; ShellMinHops the shortest path reported.
	ShellMaxHops           int `yaml:"shell_max_hops"`
	ShellMinHops           int `yaml:"shell_min_hops"`
	ShellMaxInteriorDegree int `yaml:"shell_max_interior_degree"`

	SmurfingMinTransactions int           `yaml:"smurfing_min_transactions"`
	SmurfingWindow          time.Duration `yaml:"smurfing_window"`
}

const (
	defaultCycleMinLength          = 3
	defaultCycleMaxLength          = 5
	defaultShellMaxHops            = 4
	defaultShellMinHops            = 4
	defaultShellMaxInteriorDegree  = 3
	defaultSmurfingMinTransactions = 10
	defaultSmurfingWindow          = 72 * time.Hour
)

// DefaultThresholds returns the production policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CycleMinLength:          defaultCycleMinLength,
		CycleMaxLength:          defaultCycleMaxLength,
		ShellMaxHops:            defaultShellMaxHops,
		ShellMinHops:            defaultShellMinHops,
		ShellMaxInteriorDegree:  defaultShellMaxInteriorDegree,
		SmurfingMinTransactions: defaultSmurfingMinTransactions,
		SmurfingWindow:          defaultSmurfingWindow,
	}
}

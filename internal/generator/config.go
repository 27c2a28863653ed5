package generator

import "time"

// Config drives the synthetic ledger generator.
type Config struct {
	NumAccounts     int
	NumTransactions int
	Cycles          int
	ShellChains     int
	SmurfReceivers  int
	Span            time.Duration
	Start           time.Time
	Seed            int64
}

// DefaultConfig returns a ledger large enough to exercise every detector.
func DefaultConfig() Config {
	return Config{
		NumAccounts:     500,
		NumTransactions: 5000,
		Cycles:          5,
		ShellChains:     3,
		SmurfReceivers:  3,
		Span:            30 * 24 * time.Hour,
		Start:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:            42,
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction models a single validated ledger entry.
type Transaction struct {
	ID         string
	SenderID   string
	ReceiverID string
	Amount     decimal.Decimal
	Timestamp  time.Time
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is an append-only record of money moving between two account
// numbers. A transfer writes a debit/credit pair sharing a TransferID.
type Transaction struct {
	ID            uuid.UUID
	TransferID    uuid.UUID
	FromAccount   string
	ToAccount     string
	Amount        decimal.Decimal
	EntryType     EntryType
	Status        TransactionStatus
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	CreatedAt     time.Time
}

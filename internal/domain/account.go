package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeSavings AccountType = "savings"
	AccountTypeCurrent AccountType = "current"
)

func (t AccountType) IsValid() bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}

type Account struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	AccountNumber string
	AccountType   AccountType
	Balance       decimal.Decimal
	Version       int64
	CreatedAt     time.Time
}

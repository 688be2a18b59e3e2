package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"microbank/internal/domain"
)

type accountRepo interface {
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetForUpdateByNumber(ctx context.Context, tx *sql.Tx, accountNumber string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByAccountNumber(ctx context.Context, accountNumber string) ([]domain.Transaction, error)
}

type Service struct {
	accounts     accountRepo
	transactions transactionRepo
	db           *sql.DB
}

func NewService(accounts accountRepo, transactions transactionRepo, db *sql.DB) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		db:           db,
	}
}

// ListForAccount returns the transaction history of an account, newest
// first. Only the owning customer may read it.
func (s *Service) ListForAccount(ctx context.Context, accountNumber string, customerID uuid.UUID) ([]domain.Transaction, error) {
	account, err := s.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("ListForAccount: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("ListForAccount: %w", err)
	}

	if account.CustomerID != customerID {
		return nil, fmt.Errorf("ListForAccount: %w", domain.ErrForbidden)
	}

	transactions, err := s.transactions.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("ListForAccount: %w", err)
	}
	return transactions, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"microbank/internal/domain"
	"microbank/internal/logging"
	"microbank/internal/repository"
)

type accountRepo interface {
	Create(ctx context.Context, tx *sql.Tx, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByCustomerID(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error)
	CountByCustomerID(ctx context.Context, tx *sql.Tx, customerID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type customerChecker interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
}

type AccountService struct {
	accounts       accountRepo
	customers      customerChecker
	db             *sql.DB
	openingBalance decimal.Decimal
	maxAccounts    int
}

func NewAccountService(accounts accountRepo, customers customerChecker, db *sql.DB, openingBalance decimal.Decimal, maxAccounts int) *AccountService {
	return &AccountService{
		accounts:       accounts,
		customers:      customers,
		db:             db,
		openingBalance: openingBalance,
		maxAccounts:    maxAccounts,
	}
}

// CreateAccount opens an additional account for an existing customer. The
// limit check and the insert share a transaction so two concurrent creates
// cannot both sneak under the account cap.
func (s *AccountService) CreateAccount(ctx context.Context, customerID uuid.UUID, accountType domain.AccountType) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("CreateAccount: %w", domain.ErrCustomerNotFound)
		}
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	if accountType == "" {
		accountType = domain.AccountTypeSavings
	}
	if !accountType.IsValid() {
		return nil, fmt.Errorf("CreateAccount: %w", domain.ErrInvalidRequest)
	}

	var account *domain.Account
	var err error
	for attempt := 0; ; attempt++ {
		account, err = s.createAccountTx(ctx, customerID, accountType)
		if err == nil {
			break
		}
		if repository.IsUniqueViolation(err, "accounts_account_number_key") && attempt < accountNumberAttempts {
			log.Warn("account number collision, retrying", "attempt", attempt+1)
			continue
		}
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	log.Info("account created",
		"account_id", account.ID,
		"customer_id", customerID,
		"account_number", account.AccountNumber,
		"account_type", accountType,
	)

	return account, nil
}

func (s *AccountService) createAccountTx(ctx context.Context, customerID uuid.UUID, accountType domain.AccountType) (*domain.Account, error) {
	acctNum, err := generateAccountNumber()
	if err != nil {
		return nil, fmt.Errorf("createAccountTx: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("createAccountTx: begin tx: %w", err)
	}
	defer tx.Rollback()

	count, err := s.accounts.CountByCustomerID(ctx, tx, customerID)
	if err != nil {
		return nil, fmt.Errorf("createAccountTx: %w", err)
	}
	if count >= s.maxAccounts {
		return nil, fmt.Errorf("createAccountTx: %w", domain.ErrAccountLimit)
	}

	account := &domain.Account{
		ID:            uuid.New(),
		CustomerID:    customerID,
		AccountNumber: acctNum,
		AccountType:   accountType,
		Balance:       s.openingBalance,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.accounts.Create(ctx, tx, account); err != nil {
		return nil, fmt.Errorf("createAccountTx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("createAccountTx: commit: %w", err)
	}
	return account, nil
}

func (s *AccountService) GetCustomerAccounts(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("GetCustomerAccounts: %w", domain.ErrCustomerNotFound)
		}
		return nil, fmt.Errorf("GetCustomerAccounts: %w", err)
	}

	accounts, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("GetCustomerAccounts: %w", err)
	}
	return accounts, nil
}

// GetAccountForCustomer returns the account only when it belongs to the
// given customer.
func (s *AccountService) GetAccountForCustomer(ctx context.Context, accountID, customerID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("GetAccountForCustomer: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetAccountForCustomer: %w", err)
	}

	if account.CustomerID != customerID {
		return nil, fmt.Errorf("GetAccountForCustomer: %w", domain.ErrForbidden)
	}

	return account, nil
}

// DeleteAccount rejects the delete when the account does not belong to the
// customer named in the request.
func (s *AccountService) DeleteAccount(ctx context.Context, customerID, accountID uuid.UUID) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("DeleteAccount: %w", domain.ErrAccountNotFound)
		}
		return fmt.Errorf("DeleteAccount: %w", err)
	}

	if account.CustomerID != customerID {
		return fmt.Errorf("DeleteAccount: %w", domain.ErrForbidden)
	}

	if err := s.accounts.Delete(ctx, accountID); err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account deleted",
		"account_id", accountID,
		"customer_id", customerID,
	)
	return nil
}

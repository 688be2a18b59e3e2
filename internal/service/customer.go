package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"microbank/internal/domain"
	"microbank/internal/logging"
	"microbank/internal/repository"
)

type customerRepo interface {
	Create(ctx context.Context, tx *sql.Tx, customer *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetAll(ctx context.Context) ([]domain.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CustomerService struct {
	customers      customerRepo
	accounts       accountRepo
	db             *sql.DB
	openingBalance decimal.Decimal
}

func NewCustomerService(customers customerRepo, accounts accountRepo, db *sql.DB, openingBalance decimal.Decimal) *CustomerService {
	return &CustomerService{
		customers:      customers,
		accounts:       accounts,
		db:             db,
		openingBalance: openingBalance,
	}
}

// Register creates a customer and their first savings account in one
// database transaction: either both rows exist afterwards or neither does.
func (s *CustomerService) Register(ctx context.Context, name, email, password string) (*domain.Customer, *domain.Account, error) {
	log := logging.FromContext(ctx)

	_, err := s.customers.GetByEmail(ctx, email)
	if err == nil {
		return nil, nil, fmt.Errorf("Register: %w", domain.ErrEmailExists)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("Register: check existing: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("Register: hash password: %w", err)
	}

	now := time.Now().UTC()
	customer := &domain.Customer{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}

	var account *domain.Account
	for attempt := 0; ; attempt++ {
		account, err = s.registerTx(ctx, customer)
		if err == nil {
			break
		}
		// A collision on the generated account number aborts the whole
		// transaction, so retry from the top with a fresh number.
		if repository.IsUniqueViolation(err, "accounts_account_number_key") && attempt < accountNumberAttempts {
			log.Warn("account number collision, retrying", "attempt", attempt+1)
			continue
		}
		if repository.IsUniqueViolation(err, "customers_email_key") || errors.Is(err, domain.ErrEmailExists) {
			return nil, nil, fmt.Errorf("Register: %w", domain.ErrEmailExists)
		}
		return nil, nil, fmt.Errorf("Register: %w", err)
	}

	log.Info("customer registered",
		"customer_id", customer.ID,
		"account_id", account.ID,
		"account_number", account.AccountNumber,
	)

	return customer, account, nil
}

func (s *CustomerService) registerTx(ctx context.Context, customer *domain.Customer) (*domain.Account, error) {
	acctNum, err := generateAccountNumber()
	if err != nil {
		return nil, fmt.Errorf("registerTx: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("registerTx: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.customers.Create(ctx, tx, customer); err != nil {
		return nil, fmt.Errorf("registerTx: create customer: %w", err)
	}

	account := &domain.Account{
		ID:            uuid.New(),
		CustomerID:    customer.ID,
		AccountNumber: acctNum,
		AccountType:   domain.AccountTypeSavings,
		Balance:       s.openingBalance,
		Version:       1,
		CreatedAt:     customer.CreatedAt,
	}
	if err := s.accounts.Create(ctx, tx, account); err != nil {
		return nil, fmt.Errorf("registerTx: create account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("registerTx: commit: %w", err)
	}
	return account, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

func (s *CustomerService) GetAll(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.customers.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetAll: %w", err)
	}
	return customers, nil
}

// Delete removes the customer; the accounts cascade at the storage layer.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	logging.FromContext(ctx).Info("customer deleted", "customer_id", id)
	return nil
}

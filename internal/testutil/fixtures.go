package testutil

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"microbank/internal/domain"
)

const TestPassword = "password123"

func SeedCustomer(t *testing.T, db *sql.DB, name, email string) *domain.Customer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	c := &domain.Customer{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO customers (id, name, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Email, c.PasswordHash, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed customer %s: %v", email, err)
	}
	return c
}

var seedAccountSeq int

func SeedAccount(t *testing.T, db *sql.DB, customerID uuid.UUID, balance int64) *domain.Account {
	t.Helper()

	seedAccountSeq++
	a := &domain.Account{
		ID:            uuid.New(),
		CustomerID:    customerID,
		AccountNumber: fmt.Sprintf("100%07d", seedAccountSeq),
		AccountType:   domain.AccountTypeSavings,
		Balance:       decimal.NewFromInt(balance),
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, customer_id, account_number, account_type, balance, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.CustomerID, a.AccountNumber, a.AccountType, a.Balance, a.Version, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account for %s: %v", customerID, err)
	}
	return a
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func CountAccounts(t *testing.T, db *sql.DB, customerID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM accounts WHERE customer_id = $1`, customerID).Scan(&count)
	if err != nil {
		t.Fatalf("count accounts for %s: %v", customerID, err)
	}
	return count
}

func CountCustomers(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		t.Fatalf("count customers: %v", err)
	}
	return count
}

func CountTransactions(t *testing.T, db *sql.DB, transferID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE transfer_id = $1`, transferID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for transfer %s: %v", transferID, err)
	}
	return count
}

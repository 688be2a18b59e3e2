package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"microbank/internal/domain"
)

const transactionColumns = `id, transfer_id, from_account, to_account, amount,
	entry_type, status, balance_before, balance_after, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, transfer_id, from_account, to_account, amount,
			entry_type, status, balance_before, balance_after, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.TransferID, t.FromAccount, t.ToAccount, t.Amount,
		t.EntryType, t.Status, t.BalanceBefore, t.BalanceAfter, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetByAccountNumber returns every transaction where the account is either
// side of the movement, newest first.
func (r *TransactionRepository) GetByAccountNumber(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE from_account = $1 OR to_account = $1
		ORDER BY created_at DESC`, accountNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByAccountNumber: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByAccountNumber: scan: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByAccountNumber: rows: %w", err)
	}
	return transactions, nil
}

func (r *TransactionRepository) GetByTransferID(ctx context.Context, transferID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE transfer_id = $1 ORDER BY created_at`, transferID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByTransferID: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByTransferID: scan: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByTransferID: rows: %w", err)
	}
	return transactions, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.TransferID, &t.FromAccount, &t.ToAccount, &t.Amount,
		&t.EntryType, &t.Status, &t.BalanceBefore, &t.BalanceAfter, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

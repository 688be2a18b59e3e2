package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"microbank/internal/domain"
	"microbank/internal/logging"
)

type Request struct {
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
}

// Result is the paired record of one transfer: money leaving the sender and
// arriving at the receiver, written atomically.
type Result struct {
	Debit  *domain.Transaction
	Credit *domain.Transaction
}

// CreateTransfer moves Amount from one account to another. Both balance
// mutations and both transaction rows are committed in a single database
// transaction: they happen together or not at all. The two account rows are
// locked in account-number order so concurrent transfers cannot deadlock or
// read stale balances.
func (s *Service) CreateTransfer(ctx context.Context, req Request) (*Result, error) {
	log := logging.FromContext(ctx)

	if err := validate(req); err != nil {
		return nil, fmt.Errorf("CreateTransfer: %w", err)
	}

	res, err := s.executeTransfer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreateTransfer: %w", err)
	}

	log.Info("transfer completed",
		"transfer_id", res.Debit.TransferID,
		"from_account", req.FromAccount,
		"to_account", req.ToAccount,
		"amount", req.Amount,
	)

	return res, nil
}

func validate(req Request) error {
	if req.FromAccount == "" || req.ToAccount == "" {
		return fmt.Errorf("validate: %w", domain.ErrInvalidRequest)
	}
	if req.FromAccount == req.ToAccount {
		return fmt.Errorf("validate: %w", domain.ErrSelfTransfer)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("validate: %w", domain.ErrInvalidAmount)
	}
	return nil
}

func (s *Service) executeTransfer(ctx context.Context, req Request) (*Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("executeTransfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.lockAccountsInOrder(ctx, tx, req.FromAccount, req.ToAccount)
	if err != nil {
		return nil, fmt.Errorf("executeTransfer: %w", err)
	}

	sender, receiver := locked[req.FromAccount], locked[req.ToAccount]

	if sender.Balance.LessThan(req.Amount) {
		return nil, fmt.Errorf("executeTransfer: %w", domain.ErrInsufficientFunds)
	}

	now := time.Now().UTC()
	transferID := uuid.New()

	debit := &domain.Transaction{
		ID:            uuid.New(),
		TransferID:    transferID,
		FromAccount:   req.FromAccount,
		ToAccount:     req.ToAccount,
		Amount:        req.Amount,
		EntryType:     domain.EntryTypeDebit,
		Status:        domain.TransactionStatusCompleted,
		BalanceBefore: sender.Balance,
		BalanceAfter:  sender.Balance.Sub(req.Amount),
		CreatedAt:     now,
	}
	credit := &domain.Transaction{
		ID:            uuid.New(),
		TransferID:    transferID,
		FromAccount:   req.FromAccount,
		ToAccount:     req.ToAccount,
		Amount:        req.Amount,
		EntryType:     domain.EntryTypeCredit,
		Status:        domain.TransactionStatusCompleted,
		BalanceBefore: receiver.Balance,
		BalanceAfter:  receiver.Balance.Add(req.Amount),
		CreatedAt:     now,
	}

	if err := s.transactions.Create(ctx, tx, debit); err != nil {
		return nil, fmt.Errorf("executeTransfer: debit record: %w", err)
	}
	if err := s.transactions.Create(ctx, tx, credit); err != nil {
		return nil, fmt.Errorf("executeTransfer: credit record: %w", err)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, sender.ID, debit.BalanceAfter, sender.Version+1); err != nil {
		return nil, fmt.Errorf("executeTransfer: update sender: %w", err)
	}
	if err := s.accounts.UpdateBalance(ctx, tx, receiver.ID, credit.BalanceAfter, receiver.Version+1); err != nil {
		return nil, fmt.Errorf("executeTransfer: update receiver: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("executeTransfer: commit: %w", err)
	}

	return &Result{Debit: debit, Credit: credit}, nil
}

func (s *Service) lockAccountsInOrder(ctx context.Context, tx *sql.Tx, numbers ...string) (map[string]*domain.Account, error) {
	sorted := make([]string, len(numbers))
	copy(sorted, numbers)
	sort.Strings(sorted)

	result := make(map[string]*domain.Account, len(numbers))
	for _, n := range sorted {
		acct, err := s.accounts.GetForUpdateByNumber(ctx, tx, n)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("lockAccountsInOrder: %s: %w", n, domain.ErrAccountNotFound)
			}
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[n] = acct
	}
	return result, nil
}

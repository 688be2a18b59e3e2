package transfer_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microbank/internal/domain"
	"microbank/internal/repository"
	"microbank/internal/service/transfer"
	"microbank/internal/testutil"
)

func setupTransferService(t *testing.T, db *sql.DB) *transfer.Service {
	t.Helper()
	return transfer.NewService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		db,
	)
}

func TestCreateTransfer_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	alice := testutil.SeedCustomer(t, db, "Alice", "alice@test.com")
	bob := testutil.SeedCustomer(t, db, "Bob", "bob@test.com")
	aliceAcct := testutil.SeedAccount(t, db, alice.ID, 5000)
	bobAcct := testutil.SeedAccount(t, db, bob.ID, 5000)

	res, err := svc.CreateTransfer(ctx, transfer.Request{
		FromAccount: aliceAcct.AccountNumber,
		ToAccount:   bobAcct.AccountNumber,
		Amount:      decimal.NewFromInt(2000),
	})

	require.NoError(t, err)
	require.NotNil(t, res.Debit)
	require.NotNil(t, res.Credit)

	assert.Equal(t, res.Debit.TransferID, res.Credit.TransferID)
	assert.Equal(t, domain.EntryTypeDebit, res.Debit.EntryType)
	assert.Equal(t, domain.EntryTypeCredit, res.Credit.EntryType)
	assert.Equal(t, domain.TransactionStatusCompleted, res.Debit.Status)
	assert.Equal(t, domain.TransactionStatusCompleted, res.Credit.Status)
	assert.Equal(t, aliceAcct.AccountNumber, res.Debit.FromAccount)
	assert.Equal(t, bobAcct.AccountNumber, res.Debit.ToAccount)

	assert.True(t, testutil.GetAccountBalance(t, db, aliceAcct.ID).Equal(decimal.NewFromInt(3000)))
	assert.True(t, testutil.GetAccountBalance(t, db, bobAcct.ID).Equal(decimal.NewFromInt(7000)))

	assert.Equal(t, 2, testutil.CountTransactions(t, db, res.Debit.TransferID))
}

func TestCreateTransfer_Conservation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	alice := testutil.SeedCustomer(t, db, "Alice", "alice@test.com")
	bob := testutil.SeedCustomer(t, db, "Bob", "bob@test.com")
	aliceAcct := testutil.SeedAccount(t, db, alice.ID, 10000)
	bobAcct := testutil.SeedAccount(t, db, bob.ID, 500)

	_, err := svc.CreateTransfer(ctx, transfer.Request{
		FromAccount: aliceAcct.AccountNumber,
		ToAccount:   bobAcct.AccountNumber,
		Amount:      decimal.RequireFromString("1234.56"),
	})
	require.NoError(t, err)

	sum := testutil.GetAccountBalance(t, db, aliceAcct.ID).
		Add(testutil.GetAccountBalance(t, db, bobAcct.ID))
	assert.True(t, sum.Equal(decimal.NewFromInt(10500)), "total balance changed: %s", sum)
}

func TestCreateTransfer_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	alice := testutil.SeedCustomer(t, db, "Alice", "alice@test.com")
	bob := testutil.SeedCustomer(t, db, "Bob", "bob@test.com")
	aliceAcct := testutil.SeedAccount(t, db, alice.ID, 1000)
	bobAcct := testutil.SeedAccount(t, db, bob.ID, 5000)

	_, err := svc.CreateTransfer(ctx, transfer.Request{
		FromAccount: aliceAcct.AccountNumber,
		ToAccount:   bobAcct.AccountNumber,
		Amount:      decimal.NewFromInt(1001),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.True(t, testutil.GetAccountBalance(t, db, aliceAcct.ID).Equal(decimal.NewFromInt(1000)))
	assert.True(t, testutil.GetAccountBalance(t, db, bobAcct.ID).Equal(decimal.NewFromInt(5000)))
}

func TestCreateTransfer_ExactBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	alice := testutil.SeedCustomer(t, db, "Alice", "alice@test.com")
	bob := testutil.SeedCustomer(t, db, "Bob", "bob@test.com")
	aliceAcct := testutil.SeedAccount(t, db, alice.ID, 5000)
	bobAcct := testutil.SeedAccount(t, db, bob.ID, 0)

	_, err := svc.CreateTransfer(ctx, transfer.Request{
		FromAccount: aliceAcct.AccountNumber,
		ToAccount:   bobAcct.AccountNumber,
		Amount:      decimal.NewFromInt(5000),
	})

	require.NoError(t, err)
	assert.True(t, testutil.GetAccountBalance(t, db, aliceAcct.ID).IsZero())
	assert.True(t, testutil.GetAccountBalance(t, db, bobAcct.ID).Equal(decimal.NewFromInt(5000)))
}

func TestCreateTransfer_UnknownAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	alice := testutil.SeedCustomer(t, db, "Alice", "alice@test.com")
	aliceAcct := testutil.SeedAccount(t, db, alice.ID, 5000)

	_, err := svc.CreateTransfer(ctx, transfer.Request{
		FromAccount: aliceAcct.AccountNumber,
		ToAccount:   "1009999999",
		Amount:      decimal.NewFromInt(100),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.True(t, testutil.GetAccountBalance(t, db, aliceAcct.ID).Equal(decimal.NewFromInt(5000)))
}

// Many concurrent transfers out of one account: the balance check and the
// debit must be serialized by the row lock so the sender can never go
// negative and money is never created or destroyed.
func TestCreateTransfer_ConcurrentDebits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	alice := testutil.SeedCustomer(t, db, "Alice", "alice@test.com")
	bob := testutil.SeedCustomer(t, db, "Bob", "bob@test.com")
	aliceAcct := testutil.SeedAccount(t, db, alice.ID, 1000)
	bobAcct := testutil.SeedAccount(t, db, bob.ID, 0)

	const workers = 10
	amount := decimal.NewFromInt(300)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.CreateTransfer(ctx, transfer.Request{
				FromAccount: aliceAcct.AccountNumber,
				ToAccount:   bobAcct.AccountNumber,
				Amount:      amount,
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	}

	// 1000 / 300: at most 3 transfers can clear
	assert.Equal(t, 3, succeeded)

	aliceBalance := testutil.GetAccountBalance(t, db, aliceAcct.ID)
	bobBalance := testutil.GetAccountBalance(t, db, bobAcct.ID)
	assert.True(t, aliceBalance.Equal(decimal.NewFromInt(100)), "sender balance: %s", aliceBalance)
	assert.True(t, bobBalance.Equal(decimal.NewFromInt(900)), "receiver balance: %s", bobBalance)
	assert.False(t, aliceBalance.IsNegative())
}

func TestListForAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	alice := testutil.SeedCustomer(t, db, "Alice", "alice@test.com")
	bob := testutil.SeedCustomer(t, db, "Bob", "bob@test.com")
	aliceAcct := testutil.SeedAccount(t, db, alice.ID, 5000)
	bobAcct := testutil.SeedAccount(t, db, bob.ID, 5000)

	for _, amount := range []int64{100, 200, 300} {
		_, err := svc.CreateTransfer(ctx, transfer.Request{
			FromAccount: aliceAcct.AccountNumber,
			ToAccount:   bobAcct.AccountNumber,
			Amount:      decimal.NewFromInt(amount),
		})
		require.NoError(t, err)
	}

	transactions, err := svc.ListForAccount(ctx, aliceAcct.AccountNumber, alice.ID)
	require.NoError(t, err)
	// Each transfer produces a debit and a credit row, both referencing the
	// sender's account number.
	require.Len(t, transactions, 6)

	for i := 1; i < len(transactions); i++ {
		assert.False(t, transactions[i].CreatedAt.After(transactions[i-1].CreatedAt),
			"transactions not sorted newest first")
	}
}

func TestListForAccount_NotOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	alice := testutil.SeedCustomer(t, db, "Alice", "alice@test.com")
	bob := testutil.SeedCustomer(t, db, "Bob", "bob@test.com")
	aliceAcct := testutil.SeedAccount(t, db, alice.ID, 5000)

	_, err := svc.ListForAccount(ctx, aliceAcct.AccountNumber, bob.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListForAccount_UnknownAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupTransferService(t, db)
	ctx := context.Background()

	alice := testutil.SeedCustomer(t, db, "Alice", "alice@test.com")

	_, err := svc.ListForAccount(ctx, "1009999999", alice.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

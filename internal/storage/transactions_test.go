package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func seedTransactions(t *testing.T, store *SQLiteStorage, txns ...model.Transaction) []model.Transaction {
	t.Helper()
	n, err := store.InsertTransactions(context.Background(), txns)
	require.NoError(t, err)
	require.Equal(t, len(txns), n)
	return txns
}

func TestSQLiteStorage_InsertTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	createTestUser(t, store, "1", "USD", "Food")

	txn := &model.Transaction{UserID: "1", Date: day(t, "2024-03-04"), Amount: -250, Category: "Food", Currency: "USD"}
	id, err := store.InsertTransaction(ctx, txn)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, txn.ID)

	got, err := store.GetTransaction(ctx, "1", id)
	require.NoError(t, err)
	assert.Equal(t, *txn, *got)
}

func TestSQLiteStorage_InsertTransaction_UnknownUser(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.InsertTransaction(context.Background(), &model.Transaction{
		UserID: "ghost", Date: day(t, "2024-03-04"), Amount: 1, Category: "Food", Currency: "USD",
	})
	assert.Error(t, err)
}

func TestSQLiteStorage_InsertTransactions_Atomic(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	createTestUser(t, store, "1", "USD")

	_, err := store.InsertTransactions(ctx, []model.Transaction{
		{UserID: "1", Date: day(t, "2024-01-01"), Amount: 1, Category: "A", Currency: "USD"},
		{UserID: "1", Date: day(t, "2024-01-02"), Amount: 2, Category: "", Currency: "USD"},
	})
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	txns, err := store.ListTransactions(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, txns)

	n, err := store.InsertTransactions(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStorage_GetTransaction_ScopedToUser(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	createTestUser(t, store, "1", "USD")
	createTestUser(t, store, "2", "USD")

	txns := seedTransactions(t, store,
		model.Transaction{UserID: "1", Date: day(t, "2024-01-01"), Amount: 5, Category: "A", Currency: "USD"})

	_, err := store.GetTransaction(ctx, "2", txns[0].ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetTransaction(ctx, "1", txns[0].ID+100)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_DeleteTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	createTestUser(t, store, "1", "USD")
	createTestUser(t, store, "2", "USD")

	txns := seedTransactions(t, store,
		model.Transaction{UserID: "1", Date: day(t, "2024-01-01"), Amount: 5, Category: "A", Currency: "USD"},
		model.Transaction{UserID: "1", Date: day(t, "2024-01-02"), Amount: 6, Category: "A", Currency: "USD"})

	assert.ErrorIs(t, store.DeleteTransaction(ctx, "2", txns[0].ID), common.ErrNotFound)
	require.NoError(t, store.DeleteTransaction(ctx, "1", txns[0].ID))
	assert.ErrorIs(t, store.DeleteTransaction(ctx, "1", txns[0].ID), common.ErrNotFound)

	remaining, err := store.ListTransactions(ctx, "1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, txns[1].ID, remaining[0].ID)
}

func TestSQLiteStorage_ReplaceTransaction_KeepsSingleRow(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	createTestUser(t, store, "1", "USD", "Food", "Fun")

	txns := seedTransactions(t, store,
		model.Transaction{UserID: "1", Date: day(t, "2024-01-01"), Amount: -5, Category: "Food", Currency: "USD"})

	replacement := model.Transaction{
		ID: txns[0].ID, UserID: "1", Date: day(t, "2024-02-02"), Amount: -7, Category: "Fun", Currency: "EUR",
	}
	require.NoError(t, store.ReplaceTransaction(ctx, &replacement))

	all, err := store.ListTransactions(ctx, "1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, replacement, all[0])

	missing := replacement
	missing.ID += 50
	assert.ErrorIs(t, store.ReplaceTransaction(ctx, &missing), common.ErrNotFound)
}

func TestSQLiteStorage_UpdateTransactionCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	createTestUser(t, store, "1", "USD")

	seedTransactions(t, store,
		model.Transaction{UserID: "1", Date: day(t, "2024-01-01"), Amount: -5, Category: "Food", Currency: "USD"},
		model.Transaction{UserID: "1", Date: day(t, "2024-01-02"), Amount: -6, Category: "Food", Currency: "USD"},
		model.Transaction{UserID: "1", Date: day(t, "2024-01-03"), Amount: -7, Category: "Fun", Currency: "USD"})

	require.NoError(t, store.UpdateTransactionCategory(ctx, "Food", "Groceries", "1"))

	all, err := store.ListTransactions(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", all[0].Category)
	assert.Equal(t, "Groceries", all[1].Category)
	assert.Equal(t, "Fun", all[2].Category)
}

func TestSQLiteStorage_ListTransactions_OrderedByDate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	createTestUser(t, store, "1", "USD")

	seedTransactions(t, store,
		model.Transaction{UserID: "1", Date: day(t, "2024-03-01"), Amount: 3, Category: "A", Currency: "USD"},
		model.Transaction{UserID: "1", Date: day(t, "2024-01-01"), Amount: 1, Category: "A", Currency: "USD"},
		model.Transaction{UserID: "1", Date: day(t, "2024-02-01"), Amount: 2, Category: "A", Currency: "USD"})

	all, err := store.ListTransactions(ctx, "1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].Amount, all[1].Amount, all[2].Amount})
}

func TestSQLiteStorage_ScanRejectsCorruptDate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	createTestUser(t, store, "1", "USD")

	_, err := store.db.Exec(`INSERT INTO transactions (user_id, amount, date, category, currency)
		VALUES ('1', 1, 'yesterday', 'A', 'USD')`)
	require.NoError(t, err)

	_, err = store.ListTransactions(ctx, "1")
	assert.ErrorIs(t, err, common.ErrDatabaseCorrupted)
}

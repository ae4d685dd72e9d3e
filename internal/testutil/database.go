// Package testutil provides shared fixtures for tests that need a real ledger database.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// TestDB wraps a migrated in-memory ledger database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	db.WithUser("42", "USD", "Food", "Rent")
//	db.WithTransactions(testutil.Expense("42", "2024-01-05", 300, "Food"))
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// WithUser registers a user with a default currency and category list.
func (db *TestDB) WithUser(id, currency string, categories ...string) *TestDB {
	db.t.Helper()

	user := model.NewUser(id)
	user.DefaultCurrency = currency
	user.Categories = append(user.Categories, categories...)
	if err := db.Storage.UpsertUser(context.Background(), user); err != nil {
		db.t.Fatalf("failed to seed user %q: %v", id, err)
	}
	return db
}

// WithTransactions inserts the given transactions in order.
// Transactions without a currency inherit the owner's default.
func (db *TestDB) WithTransactions(txns ...model.Transaction) *TestDB {
	db.t.Helper()
	ctx := context.Background()

	for i := range txns {
		if txns[i].Currency == "" {
			user, err := db.Storage.GetUser(ctx, txns[i].UserID)
			if err != nil {
				db.t.Fatalf("failed to look up owner of transaction %d: %v", i, err)
			}
			txns[i].Currency = user.DefaultCurrency
		}
	}
	if _, err := db.Storage.InsertTransactions(ctx, txns); err != nil {
		db.t.Fatalf("failed to seed transactions: %v", err)
	}
	return db
}

// Transactions returns everything stored for the user, ordered by date.
func (db *TestDB) Transactions(userID string) []model.Transaction {
	db.t.Helper()
	txns, err := db.Storage.ListTransactions(context.Background(), userID)
	if err != nil {
		db.t.Fatalf("failed to list transactions: %v", err)
	}
	return txns
}

// Income builds a positive transaction dated YYYY-MM-DD.
func Income(userID, date string, amount int64, category string) model.Transaction {
	return model.Transaction{UserID: userID, Date: MustDate(date), Amount: amount, Category: category}
}

// Expense builds a negative transaction dated YYYY-MM-DD from a positive amount.
func Expense(userID, date string, amount int64, category string) model.Transaction {
	return model.Transaction{UserID: userID, Date: MustDate(date), Amount: -amount, Category: category}
}

// MustDate parses YYYY-MM-DD or panics.
func MustDate(value string) time.Time {
	d, err := model.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}

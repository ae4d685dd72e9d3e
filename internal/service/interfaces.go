// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// User operations
	GetUser(ctx context.Context, id string) (*model.User, error)
	EnsureUser(ctx context.Context, id string) (*model.User, error)
	UpsertUser(ctx context.Context, user *model.User) error
	ListUserIDs(ctx context.Context) ([]string, error)
	RenameCategory(ctx context.Context, userID, oldName, newName string) error

	// Transaction operations
	InsertTransaction(ctx context.Context, txn *model.Transaction) (int64, error)
	InsertTransactions(ctx context.Context, txns []model.Transaction) (int, error)
	GetTransaction(ctx context.Context, userID string, id int64) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, userID string, id int64) error
	ReplaceTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransactionCategory(ctx context.Context, oldCategory, newCategory, userID string) error
	QueryTransactions(ctx context.Context, pred model.Predicate) ([]model.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// TransactionQuerier is the slice of storage reports need.
type TransactionQuerier interface {
	QueryTransactions(ctx context.Context, pred model.Predicate) ([]model.Transaction, error)
}

// Service produces reports from stored transactions.
type Service struct {
	store TransactionQuerier
}

// NewService creates a report service over store.
func NewService(store TransactionQuerier) *Service {
	return &Service{store: store}
}

// Generate aggregates the user's transactions dated within [start, end].
func (s *Service) Generate(ctx context.Context, userID string, start, end time.Time) (*Report, error) {
	pred := model.Predicate{
		UserID:  userID,
		Clauses: []model.Clause{model.DateBetween{Start: start, End: end}},
	}

	txns, err := s.store.QueryTransactions(ctx, pred)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for report: %w", err)
	}

	return Aggregate(txns, start, end), nil
}

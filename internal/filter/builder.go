package filter

import (
	"context"
	"fmt"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// TransactionQuerier is the slice of storage the builder needs.
type TransactionQuerier interface {
	QueryTransactions(ctx context.Context, pred model.Predicate) ([]model.Transaction, error)
}

// Builder turns parsed clauses into predicates and runs them against storage.
type Builder struct {
	store TransactionQuerier
}

// NewBuilder creates a query builder over store.
func NewBuilder(store TransactionQuerier) *Builder {
	return &Builder{store: store}
}

// Build scopes clauses to userID. Identical clauses are collapsed; distinct
// clauses on the same field are all kept, so two different categories select
// nothing.
func (b *Builder) Build(userID string, clauses []model.Clause) model.Predicate {
	seen := make(map[model.Clause]struct{}, len(clauses))
	unique := make([]model.Clause, 0, len(clauses))
	for _, c := range clauses {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	return model.Predicate{UserID: userID, Clauses: unique}
}

// Fetch returns the transactions matching pred in store order. An empty result
// is reported as common.ErrNoTransactions.
func (b *Builder) Fetch(ctx context.Context, pred model.Predicate) ([]model.Transaction, error) {
	txns, err := b.store.QueryTransactions(ctx, pred)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch filtered transactions: %w", err)
	}
	if len(txns) == 0 {
		return nil, common.ErrNoTransactions
	}
	return txns, nil
}

// Run parses raw, builds the predicate for userID and fetches the matches.
func (b *Builder) Run(ctx context.Context, userID, raw string) ([]model.Transaction, error) {
	clauses, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return b.Fetch(ctx, b.Build(userID, clauses))
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

const transactionColumns = `id, user_id, amount, date, category, currency`

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertTransaction stores a new transaction and returns its assigned id.
// The transaction's ID field is updated in place.
func (s *SQLiteStorage) InsertTransaction(ctx context.Context, txn *model.Transaction) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransaction(txn); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, amount, date, category, currency)
		VALUES (?, ?, ?, ?, ?)`,
		txn.UserID, txn.Amount, txn.DateString(), txn.Category, txn.Currency)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read transaction id: %w", err)
	}
	txn.ID = id

	return id, nil
}

// InsertTransactions stores a batch of transactions atomically and returns
// how many rows were written.
func (s *SQLiteStorage) InsertTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i := range txns {
		if err := validateTransaction(&txns[i]); err != nil {
			return 0, fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	if len(txns) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (user_id, amount, date, category, currency)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range txns {
		txn := &txns[i]
		result, err := stmt.ExecContext(ctx, txn.UserID, txn.Amount, txn.DateString(), txn.Category, txn.Currency)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction at index %d: %w", i, err)
		}
		if txn.ID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to read transaction id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}

	slog.Debug("inserted transactions", "count", len(txns))
	return len(txns), nil
}

// GetTransaction returns one of the user's transactions by id.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, userID string, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// DeleteTransaction removes one of the user's transactions.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, userID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	return expectAffected(result, id)
}

// ReplaceTransaction overwrites every field of an existing transaction in a
// single statement. The numeric id is preserved.
func (s *SQLiteStorage) ReplaceTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, date = ?, category = ?, currency = ?
		WHERE id = ? AND user_id = ?`,
		txn.Amount, txn.DateString(), txn.Category, txn.Currency, txn.ID, txn.UserID)
	if err != nil {
		return fmt.Errorf("failed to replace transaction %d: %w", txn.ID, err)
	}
	return expectAffected(result, txn.ID)
}

// UpdateTransactionCategory relabels every transaction of the user from
// oldCategory to newCategory.
func (s *SQLiteStorage) UpdateTransactionCategory(ctx context.Context, oldCategory, newCategory, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(newCategory, "newCategory"); err != nil {
		return err
	}

	n, err := s.updateTransactionCategoryTx(ctx, s.db, oldCategory, newCategory, userID)
	if err != nil {
		return err
	}

	slog.Debug("relabelled transactions",
		"user_id", userID,
		"from", oldCategory,
		"to", newCategory,
		"count", n)
	return nil
}

func (s *SQLiteStorage) updateTransactionCategoryTx(ctx context.Context, q queryable, oldCategory, newCategory, userID string) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE transactions SET category = ? WHERE category = ? AND user_id = ?`,
		newCategory, oldCategory, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update transaction categories: %w", err)
	}
	return result.RowsAffected()
}

// QueryTransactions returns the user's transactions matching every clause of
// the predicate, in insertion order.
func (s *SQLiteStorage) QueryTransactions(ctx context.Context, pred model.Predicate) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePredicate(pred); err != nil {
		return nil, err
	}

	where, args, err := compilePredicate(pred)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where + ` ORDER BY id`
	slog.Debug("querying transactions", "where", where, "clauses", len(pred.Clauses))

	return s.queryTransactions(ctx, query, args...)
}

// ListTransactions returns all of the user's transactions ordered by date.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date, id`, userID)
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (model.Transaction, error) {
	var (
		txn  model.Transaction
		date string
	)
	if err := row.Scan(&txn.ID, &txn.UserID, &txn.Amount, &date, &txn.Category, &txn.Currency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return txn, err
		}
		return txn, fmt.Errorf("failed to scan transaction: %w", err)
	}

	parsed, err := model.ParseDate(date)
	if err != nil {
		return txn, fmt.Errorf("%w: transaction %d has date %q", common.ErrDatabaseCorrupted, txn.ID, date)
	}
	txn.Date = parsed

	return txn, nil
}

func expectAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	return nil
}

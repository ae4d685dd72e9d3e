package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// GetUser returns the user with the given id or common.ErrNotFound.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getUserTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getUserTx(ctx context.Context, q queryable, id string) (*model.User, error) {
	var (
		categoriesJSON string
		currency       sql.NullString
	)

	err := q.QueryRowContext(ctx,
		`SELECT categories, default_currency FROM users WHERE id = ?`, id,
	).Scan(&categoriesJSON, &currency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user := model.NewUser(id)
	if categoriesJSON != "" {
		if err := json.Unmarshal([]byte(categoriesJSON), &user.Categories); err != nil {
			return nil, fmt.Errorf("%w: categories of user %s: %v", common.ErrDatabaseCorrupted, id, err)
		}
	}
	if user.Categories == nil {
		user.Categories = []string{}
	}
	user.DefaultCurrency = currency.String

	return user, nil
}

// EnsureUser returns the stored user, creating an empty one on first contact.
func (s *SQLiteStorage) EnsureUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	user = model.NewUser(id)
	if err := s.UpsertUser(ctx, user); err != nil {
		return nil, err
	}

	slog.Debug("created user", "user_id", id)
	return user, nil
}

// UpsertUser inserts the user or overwrites its categories and default currency.
func (s *SQLiteStorage) UpsertUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}
	return s.upsertUserTx(ctx, s.db, user)
}

func (s *SQLiteStorage) upsertUserTx(ctx context.Context, q queryable, user *model.User) error {
	categories := user.Categories
	if categories == nil {
		categories = []string{}
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	var currency sql.NullString
	if user.DefaultCurrency != "" {
		currency = sql.NullString{String: user.DefaultCurrency, Valid: true}
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO users (id, categories, default_currency)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			categories = excluded.categories,
			default_currency = excluded.default_currency`,
		user.ID, string(categoriesJSON), currency)
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}
	return nil
}

// ListUserIDs returns every known user id in creation order.
func (s *SQLiteStorage) ListUserIDs(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return ids, nil
}

// RenameCategory renames the first occurrence of oldName in the user's list
// and relabels all of the user's transactions, in one database transaction.
func (s *SQLiteStorage) RenameCategory(ctx context.Context, userID, oldName, newName string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(newName, "newName"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	user, err := s.getUserTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if !user.RenameCategory(oldName, newName) {
		return fmt.Errorf("category %q: %w", oldName, common.ErrNotFound)
	}
	if err := s.upsertUserTx(ctx, tx, user); err != nil {
		return err
	}
	if _, err := s.updateTransactionCategoryTx(ctx, tx, oldName, newName, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category rename: %w", err)
	}
	return nil
}

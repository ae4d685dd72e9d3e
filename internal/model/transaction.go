package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for storage, filters and exports.
const DateLayout = "2006-01-02"

// Transaction represents a single income or expense entry reported by a user.
// Positive amounts are income, negative amounts are expenses.
type Transaction struct {
	Date     time.Time
	UserID   string
	Category string
	Currency string
	ID       int64
	Amount   int64
}

// IsIncome reports whether the transaction increases the balance.
func (t Transaction) IsIncome() bool {
	return t.Amount > 0
}

// IsExpense reports whether the transaction decreases the balance.
func (t Transaction) IsExpense() bool {
	return t.Amount < 0
}

// DateString returns the transaction date formatted as YYYY-MM-DD.
func (t Transaction) DateString() string {
	return t.Date.Format(DateLayout)
}

// Snapshot captures the display fields of the transaction.
func (t Transaction) Snapshot() Snapshot {
	return Snapshot{
		ID:       t.ID,
		Date:     t.DateString(),
		Amount:   t.Amount,
		Category: t.Category,
		Currency: t.Currency,
	}
}

// Snapshot is an immutable textual capture of a transaction taken when it was
// listed or selected. Unedited fields of a replacement fall back to it.
type Snapshot struct {
	Date     string
	Category string
	Currency string
	ID       int64
	Amount   int64
}

// String renders the snapshot in the labeled form shown to users and the oracle.
func (s Snapshot) String() string {
	return fmt.Sprintf("ID: %d, Date: %s, Amount: %d, Category: %s, Currency: %s",
		s.ID, s.Date, s.Amount, s.Category, s.Currency)
}

// Label renders the short form used on selection buttons.
func (s Snapshot) Label() string {
	return fmt.Sprintf("%s: %d %s (%s)", s.Date, s.Amount, s.Currency, s.Category)
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

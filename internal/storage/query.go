package storage

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// compilePredicate turns a predicate into a WHERE fragment and its arguments.
// Dates are stored as YYYY-MM-DD text, so lexical comparison is chronological.
func compilePredicate(pred model.Predicate) (string, []any, error) {
	conditions := make([]string, 0, len(pred.Clauses)+1)
	args := make([]any, 0, 2*len(pred.Clauses)+1)

	conditions = append(conditions, "user_id = ?")
	args = append(args, pred.UserID)

	for _, clause := range pred.Clauses {
		switch c := clause.(type) {
		case model.DateEq:
			conditions = append(conditions, "date = ?")
			args = append(args, c.Date.Format(model.DateLayout))
		case model.DateBetween:
			conditions = append(conditions, "date BETWEEN ? AND ?")
			args = append(args, c.Start.Format(model.DateLayout), c.End.Format(model.DateLayout))
		case model.AmountEq:
			conditions = append(conditions, "amount = ?")
			args = append(args, c.Amount)
		case model.AmountBetween:
			conditions = append(conditions, "amount BETWEEN ? AND ?")
			args = append(args, c.Low, c.High)
		case model.CategoryEq:
			conditions = append(conditions, "category = ?")
			args = append(args, c.Name)
		default:
			return "", nil, fmt.Errorf("%w: unsupported clause %T", ErrInvalidPredicate, clause)
		}
	}

	return strings.Join(conditions, " AND "), args, nil
}

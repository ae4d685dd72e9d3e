package model

import (
	"fmt"
	"time"
)

// Clause is a single parsed filter predicate. The set of implementations is
// closed: DateEq, DateBetween, AmountEq, AmountBetween and CategoryEq.
type Clause interface {
	fmt.Stringer
	// Match evaluates the clause against a transaction in memory.
	Match(txn Transaction) bool
	clause()
}

// DateEq matches transactions on one calendar date.
type DateEq struct {
	Date time.Time
}

// DateBetween matches transactions dated within [Start, End] inclusive.
type DateBetween struct {
	Start time.Time
	End   time.Time
}

// AmountEq matches one exact signed amount.
type AmountEq struct {
	Amount int64
}

// AmountBetween matches signed amounts within [Low, High] inclusive.
type AmountBetween struct {
	Low  int64
	High int64
}

// CategoryEq matches one category name literally.
type CategoryEq struct {
	Name string
}

func (DateEq) clause()        {}
func (DateBetween) clause()   {}
func (AmountEq) clause()      {}
func (AmountBetween) clause() {}
func (CategoryEq) clause()    {}

func (c DateEq) String() string { return "date = " + c.Date.Format(DateLayout) }

func (c DateBetween) String() string {
	return fmt.Sprintf("date between %s and %s", c.Start.Format(DateLayout), c.End.Format(DateLayout))
}

func (c AmountEq) String() string { return fmt.Sprintf("amount = %d", c.Amount) }

func (c AmountBetween) String() string {
	return fmt.Sprintf("amount between %d and %d", c.Low, c.High)
}

func (c CategoryEq) String() string { return fmt.Sprintf("category = %q", c.Name) }

// Dates compare on their YYYY-MM-DD form so that time-of-day never matters.

// Match implements Clause.
func (c DateEq) Match(txn Transaction) bool {
	return txn.DateString() == c.Date.Format(DateLayout)
}

// Match implements Clause.
func (c DateBetween) Match(txn Transaction) bool {
	day := txn.DateString()
	return day >= c.Start.Format(DateLayout) && day <= c.End.Format(DateLayout)
}

// Match implements Clause.
func (c AmountEq) Match(txn Transaction) bool { return txn.Amount == c.Amount }

// Match implements Clause.
func (c AmountBetween) Match(txn Transaction) bool {
	return txn.Amount >= c.Low && txn.Amount <= c.High
}

// Match implements Clause.
func (c CategoryEq) Match(txn Transaction) bool { return txn.Category == c.Name }

// Predicate is the conjunction of clauses scoped to one user.
type Predicate struct {
	UserID  string
	Clauses []Clause
}

// Matches evaluates the predicate against a transaction in memory.
func (p Predicate) Matches(txn Transaction) bool {
	if txn.UserID != p.UserID {
		return false
	}
	for _, c := range p.Clauses {
		if !c.Match(txn) {
			return false
		}
	}
	return true
}

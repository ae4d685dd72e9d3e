// Package report aggregates a user's transactions over a period into income
// and expense totals per currency and per category.
package report

import (
	"sort"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Totals splits a set of amounts into income (sum of strictly positive
// amounts) and expenses (sum of magnitudes of strictly negative amounts).
type Totals struct {
	Income   int64
	Expenses int64
}

// Net is income minus expenses, equal to the signed sum of the amounts.
func (t Totals) Net() int64 {
	return t.Income - t.Expenses
}

// IsZero reports whether nothing was earned or spent.
func (t Totals) IsZero() bool {
	return t.Income == 0 && t.Expenses == 0
}

func (t *Totals) add(amount int64) {
	switch {
	case amount > 0:
		t.Income += amount
	case amount < 0:
		t.Expenses += -amount
	}
}

// CategoryTotals holds the totals for one category within one currency.
type CategoryTotals struct {
	Name string
	Totals
}

// CurrencyReport holds the totals for one currency and its categories,
// ordered lexically by category name.
type CurrencyReport struct {
	Currency   string
	Categories []CategoryTotals
	Totals
}

// Report is the aggregate over [Start, End]. Currencies are ordered lexically.
type Report struct {
	Start      time.Time
	End        time.Time
	Currencies []CurrencyReport
}

// Empty reports whether no currency had any income or expense.
func (r *Report) Empty() bool {
	return len(r.Currencies) == 0
}

// Currency returns the section for code, if present.
func (r *Report) Currency(code string) (CurrencyReport, bool) {
	for _, c := range r.Currencies {
		if c.Currency == code {
			return c, true
		}
	}
	return CurrencyReport{}, false
}

// Category returns the totals for name, if present.
func (c CurrencyReport) Category(name string) (CategoryTotals, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return CategoryTotals{}, false
}

// Aggregate groups the transactions dated within [start, end] by currency
// and then by category. Transactions outside the range are ignored, zero
// amounts count toward neither bucket, and currencies with no income and no
// expenses are omitted. The result does not depend on input order.
func Aggregate(txns []model.Transaction, start, end time.Time) *Report {
	window := model.DateBetween{Start: start, End: end}

	byCurrency := make(map[string]*Totals)
	byCategory := make(map[string]map[string]*Totals)

	for _, txn := range txns {
		if !window.Match(txn) || txn.Amount == 0 {
			continue
		}

		cur, ok := byCurrency[txn.Currency]
		if !ok {
			cur = &Totals{}
			byCurrency[txn.Currency] = cur
			byCategory[txn.Currency] = make(map[string]*Totals)
		}
		cur.add(txn.Amount)

		cat, ok := byCategory[txn.Currency][txn.Category]
		if !ok {
			cat = &Totals{}
			byCategory[txn.Currency][txn.Category] = cat
		}
		cat.add(txn.Amount)
	}

	report := &Report{Start: start, End: end}
	for _, code := range sortedKeys(byCurrency) {
		totals := byCurrency[code]
		if totals.IsZero() {
			continue
		}

		section := CurrencyReport{Currency: code, Totals: *totals}
		for _, name := range sortedKeys(byCategory[code]) {
			section.Categories = append(section.Categories, CategoryTotals{
				Name:   name,
				Totals: *byCategory[code][name],
			})
		}
		report.Currencies = append(report.Currencies, section)
	}

	return report
}

func sortedKeys(m map[string]*Totals) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

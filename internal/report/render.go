package report

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Render formats the report as the plain-text chat reply.
func Render(r *Report) string {
	if r.Empty() {
		return fmt.Sprintf("No income or expenses between %s and %s.",
			r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Report for %s - %s\n\n", r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout))

	for i, section := range r.Currencies {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Total income for the period (%s): %d\n", section.Currency, section.Income)
		fmt.Fprintf(&b, "Total expenses for the period (%s): %d\n", section.Currency, section.Expenses)

		for _, cat := range section.Categories {
			if cat.Income > 0 {
				fmt.Fprintf(&b, "Income in '%s' (%s): %d\n", cat.Name, section.Currency, cat.Income)
			}
			if cat.Expenses > 0 {
				fmt.Fprintf(&b, "Expenses in '%s' (%s): %d\n", cat.Name, section.Currency, cat.Expenses)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

var (
	singleDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateRangePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\s*[-–]\s*\d{4}-\d{2}-\d{2}$`)
	singleAmountPattern = regexp.MustCompile(`^-?\d+$`)
	amountRangePattern  = regexp.MustCompile(`^(-?\d+)\s*[-–]\s*(-?\d+)$`)
	// RE2's \w is ASCII only; category names are routinely Cyrillic.
	categoryPattern = regexp.MustCompile(`^[\p{L}\p{M}\p{N}_]+$`)
)

// rangeSeparators are tried in order; only the first occurrence splits.
var rangeSeparators = []string{" - ", " – "}

// ParseError reports a token that could not be classified. Any ParseError
// rejects the whole expression.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid filter token %q: %s", e.Token, e.Reason)
}

// Parse splits raw on commas and classifies every trimmed token. It returns
// either the complete clause list or a single *ParseError, never a partial list.
func Parse(raw string) ([]model.Clause, error) {
	tokens := strings.Split(raw, ",")
	clauses := make([]model.Clause, 0, len(tokens))

	for _, tok := range tokens {
		clause, err := parseToken(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}

	return clauses, nil
}

func parseToken(tok string) (model.Clause, error) {
	switch {
	case tok == "":
		return nil, &ParseError{Token: tok, Reason: "empty clause"}

	case singleDatePattern.MatchString(tok):
		date, err := parseDate(tok)
		if err != nil {
			return nil, err
		}
		return model.DateEq{Date: date}, nil

	case dateRangePattern.MatchString(tok):
		start, end, err := ParseDateRange(tok)
		if err != nil {
			return nil, err
		}
		return model.DateBetween{Start: start, End: end}, nil

	case singleAmountPattern.MatchString(tok):
		amount, err := parseAmount(tok, tok)
		if err != nil {
			return nil, err
		}
		return model.AmountEq{Amount: amount}, nil

	case amountRangePattern.MatchString(tok):
		m := amountRangePattern.FindStringSubmatch(tok)
		low, err := parseAmount(tok, m[1])
		if err != nil {
			return nil, err
		}
		high, err := parseAmount(tok, m[2])
		if err != nil {
			return nil, err
		}
		if low > high {
			return nil, &ParseError{Token: tok, Reason: "range start is above range end"}
		}
		return model.AmountBetween{Low: low, High: high}, nil

	case categoryPattern.MatchString(tok):
		return model.CategoryEq{Name: tok}, nil

	default:
		return nil, &ParseError{Token: tok, Reason: "not a date, amount or category"}
	}
}

// ParseDateRange parses "YYYY-MM-DD - YYYY-MM-DD" (hyphen or en dash between
// spaces). The range must split into exactly two valid dates with start <= end.
func ParseDateRange(raw string) (time.Time, time.Time, error) {
	tok := strings.TrimSpace(raw)
	if !dateRangePattern.MatchString(tok) {
		return time.Time{}, time.Time{}, &ParseError{Token: tok, Reason: "expected YYYY-MM-DD - YYYY-MM-DD"}
	}

	var parts []string
	for _, sep := range rangeSeparators {
		if parts = strings.SplitN(tok, sep, 2); len(parts) == 2 {
			break
		}
	}
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, &ParseError{Token: tok, Reason: "malformed date range"}
	}

	start, err := parseDate(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, &ParseError{Token: tok, Reason: "range start is after range end"}
	}

	return start, end, nil
}

func parseDate(tok string) (time.Time, error) {
	date, err := model.ParseDate(tok)
	if err != nil {
		return time.Time{}, &ParseError{Token: tok, Reason: "not a calendar date"}
	}
	return date, nil
}

func parseAmount(tok, digits string) (int64, error) {
	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &ParseError{Token: tok, Reason: "amount out of range"}
	}
	return amount, nil
}

package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []model.Clause
	}{
		{
			name:  "single date",
			input: "2025-02-20",
			want:  []model.Clause{model.DateEq{Date: date(2025, 2, 20)}},
		},
		{
			name:  "date range with hyphen",
			input: "2025-02-20 - 2025-02-25",
			want:  []model.Clause{model.DateBetween{Start: date(2025, 2, 20), End: date(2025, 2, 25)}},
		},
		{
			name:  "date range with en dash",
			input: "2025-02-20 – 2025-02-25",
			want:  []model.Clause{model.DateBetween{Start: date(2025, 2, 20), End: date(2025, 2, 25)}},
		},
		{
			name:  "single amount",
			input: "1000",
			want:  []model.Clause{model.AmountEq{Amount: 1000}},
		},
		{
			name:  "negative amount",
			input: "-250",
			want:  []model.Clause{model.AmountEq{Amount: -250}},
		},
		{
			name:  "amount range",
			input: "1000 - 2000",
			want:  []model.Clause{model.AmountBetween{Low: 1000, High: 2000}},
		},
		{
			name:  "negative amount range is one clause",
			input: "-5 - -2",
			want:  []model.Clause{model.AmountBetween{Low: -5, High: -2}},
		},
		{
			name:  "amount range without spaces",
			input: "-5--2",
			want:  []model.Clause{model.AmountBetween{Low: -5, High: -2}},
		},
		{
			name:  "cyrillic category",
			input: "Продукты",
			want:  []model.Clause{model.CategoryEq{Name: "Продукты"}},
		},
		{
			name:  "underscore category",
			input: "home_repair",
			want:  []model.Clause{model.CategoryEq{Name: "home_repair"}},
		},
		{
			name:  "combined expression",
			input: "2025-02-20 - 2025-02-25, Продукты, коммуналка, 1000 - 2000",
			want: []model.Clause{
				model.DateBetween{Start: date(2025, 2, 20), End: date(2025, 2, 25)},
				model.CategoryEq{Name: "Продукты"},
				model.CategoryEq{Name: "коммуналка"},
				model.AmountBetween{Low: 1000, High: 2000},
			},
		},
		{
			name:  "surrounding whitespace is trimmed",
			input: "  500 ,\tFood  ",
			want:  []model.Clause{model.AmountEq{Amount: 500}, model.CategoryEq{Name: "Food"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantToken string
	}{
		{name: "empty input", input: "", wantToken: ""},
		{name: "trailing comma", input: "Food,", wantToken: ""},
		{name: "two words", input: "eating out", wantToken: "eating out"},
		{name: "punctuation", input: "food!", wantToken: "food!"},
		{name: "impossible date", input: "2025-02-30", wantToken: "2025-02-30"},
		{name: "date range without spaces", input: "2025-02-20-2025-02-25", wantToken: "2025-02-20-2025-02-25"},
		{name: "inverted date range", input: "2025-02-25 - 2025-02-20", wantToken: "2025-02-25 - 2025-02-20"},
		{name: "inverted amount range", input: "10 - 5", wantToken: "10 - 5"},
		{name: "amount overflow", input: "99999999999999999999", wantToken: "99999999999999999999"},
		{name: "decimal amount", input: "10.5", wantToken: "10.5"},
		{name: "bad token after good ones", input: "2025-02-20, Food, ???", wantToken: "???"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			assert.Nil(t, got, "no partial clause list")

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "want *ParseError, got %v", err)
			assert.Equal(t, tt.wantToken, parseErr.Token)
		})
	}
}

// Inverted ranges and impossible dates are rejected outright rather than
// matching nothing.
func TestParse_RejectionReasons(t *testing.T) {
	tests := map[string]string{
		"10 - 5":                  "range start is above range end",
		"2025-02-25 - 2025-02-20": "range start is after range end",
		"2025-02-30":              "not a calendar date",
		"2025-02-01 - 2025-02-30": "not a calendar date",
	}

	for input, reason := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, reason, parseErr.Reason)
		})
	}
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange(" 2025-01-01 - 2025-01-31 ")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 1), start)
	assert.Equal(t, date(2025, 1, 31), end)

	start, end, err = ParseDateRange("2025-01-05 - 2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, start, end)

	for _, bad := range []string{"2025-01-01", "last month", "2025-01-01 - 2025-13-01", "2025-01-01-2025-01-31"} {
		_, _, err := ParseDateRange(bad)
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr, bad)
	}
}

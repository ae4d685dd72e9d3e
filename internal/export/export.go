// Package export renders a user's transactions as downloadable files.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Format is a supported export file type.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Formats lists every file format in menu order.
var Formats = []Format{FormatXLSX, FormatCSV, FormatJSON}

// Header is the column order shared by every format.
var Header = []string{"Date", "Amount", "Category", "Currency"}

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: export format %q", common.ErrInvalidConfig, name)
}

// MIME returns the media type for the format.
func (f Format) MIME() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// FileName is the download name for a user's export.
func FileName(userID string, f Format) string {
	return fmt.Sprintf("%s_transactions.%s", userID, f)
}

// Row is one exported transaction.
type Row struct {
	Date     string `json:"Date"`
	Category string `json:"Category"`
	Currency string `json:"Currency"`
	Amount   int64  `json:"Amount"`
}

// Rows converts transactions into export rows sorted by date ascending, ties
// broken by id. The input slice is not modified.
func Rows(txns []model.Transaction) []Row {
	sorted := make([]model.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := sorted[i].DateString(), sorted[j].DateString()
		if di != dj {
			return di < dj
		}
		return sorted[i].ID < sorted[j].ID
	})

	rows := make([]Row, len(sorted))
	for i, txn := range sorted {
		rows[i] = Row{
			Date:     txn.DateString(),
			Amount:   txn.Amount,
			Category: txn.Category,
			Currency: txn.Currency,
		}
	}
	return rows
}

// Encode writes the transactions to w in the given format.
func Encode(w io.Writer, f Format, txns []model.Transaction) error {
	rows := Rows(txns)
	switch f {
	case FormatXLSX:
		return writeXLSX(w, rows)
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatJSON:
		return writeJSON(w, rows)
	default:
		return fmt.Errorf("%w: export format %q", common.ErrInvalidConfig, f)
	}
}

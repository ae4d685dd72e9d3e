package export

import (
	"encoding/json"
	"fmt"
	"io"
)

func writeJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode JSON export: %w", err)
	}
	return nil
}

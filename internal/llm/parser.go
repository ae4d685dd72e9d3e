package llm

import (
	"encoding/json"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// extractJSON returns the outermost JSON object in content, dropping markdown
// code fences and any prose around it.
func extractJSON(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", false
	}
	return content[start : end+1], true
}

// decodeContract unmarshals the JSON object in content into out, reporting
// anything malformed as a contract violation.
func decodeContract(content string, out any) error {
	raw, ok := extractJSON(content)
	if !ok {
		return common.ContractViolation("no JSON object in response %q", truncate(content, 120))
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return common.ContractViolation("malformed JSON %q: %v", truncate(raw, 120), err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

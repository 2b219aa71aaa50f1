package logger

import (
	"fmt"
	"strings"
)

// DefaultSensitiveColumns are masked when no explicit list is configured.
var DefaultSensitiveColumns = []string{
	"password", "passwd", "pwd",
	"token", "api_key", "apikey", "api_token",
	"secret", "authorization",
	"credit_card", "card_number", "cvv", "cvc",
	"ssn", "private_key",
}

const maskValue = "***REDACTED***"

// Sanitizer masks bind values destined for sensitive columns so they never
// reach log output. The builder reports the column of every bind value,
// which lets masking be exact rather than statement-wide.
type Sanitizer struct {
	sensitive map[string]struct{}
}

// NewSanitizer creates a sanitizer for the given column names. An empty list
// selects DefaultSensitiveColumns.
func NewSanitizer(columns []string) *Sanitizer {
	if len(columns) == 0 {
		columns = DefaultSensitiveColumns
	}
	s := &Sanitizer{sensitive: make(map[string]struct{}, len(columns))}
	for _, c := range columns {
		s.sensitive[strings.ToLower(c)] = struct{}{}
	}
	return s
}

// IsSensitive reports whether a column name is masked. Qualified names
// ("users.password") are matched on their last segment.
func (s *Sanitizer) IsSensitive(column string) bool {
	if i := strings.LastIndexByte(column, '.'); i >= 0 {
		column = column[i+1:]
	}
	_, ok := s.sensitive[strings.ToLower(column)]
	return ok
}

// Mask returns a copy of params with values bound to sensitive columns
// replaced. columns[i] names the target column of params[i]; missing or
// empty entries are left unmasked. The input slice is not modified.
func (s *Sanitizer) Mask(columns []string, params []any) []any {
	masked := make([]any, len(params))
	for i, p := range params {
		if i < len(columns) && columns[i] != "" && s.IsSensitive(columns[i]) {
			masked[i] = maskValue
			continue
		}
		masked[i] = p
	}
	return masked
}

// Format renders params for a log line, truncating very long values.
func (s *Sanitizer) Format(params []any) string {
	if len(params) == 0 {
		return "[]"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatValue(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	str := fmt.Sprintf("%v", v)

	const maxLen = 100
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

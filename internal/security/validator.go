// Package security validates the untrusted text that wee interpolates into
// SQL: identifiers, comparison operators, sort directions and raw select
// expressions. Values never pass through here; they are always bound.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidIdentifier is returned for a table or column name that is
	// not a plain, optionally dotted, identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidOperator is returned for an operator outside the whitelist.
	ErrInvalidOperator = errors.New("invalid operator")
	// ErrInvalidDirection is returned for an ORDER BY direction other than ASC or DESC.
	ErrInvalidDirection = errors.New("invalid sort direction")
	// ErrUnsafeExpression is returned when a raw expression matches a known
	// injection pattern.
	ErrUnsafeExpression = errors.New("unsafe SQL expression")
)

// maxIdentifierLength is the PostgreSQL limit, the smallest of the supported engines.
const maxIdentifierLength = 63

var identPart = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// operators is the comparison whitelist, keyed by normalized spelling.
var operators = map[string]string{
	"=":        "=",
	"!=":       "!=",
	"<>":       "<>",
	"<":        "<",
	"<=":       "<=",
	">":        ">",
	">=":       ">=",
	"LIKE":     "LIKE",
	"NOT LIKE": "NOT LIKE",
}

// ValidateIdentifier accepts name, schema.name, * and table.*.
func ValidateIdentifier(name string) error {
	if name == "*" {
		return nil
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	for i, part := range parts {
		if part == "*" && i == len(parts)-1 && i > 0 {
			continue
		}
		if len(part) > maxIdentifierLength || !identPart.MatchString(part) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	return nil
}

// NormalizeOperator returns the canonical spelling of op, or ErrInvalidOperator.
// Matching is case-insensitive and tolerant of surrounding whitespace.
func NormalizeOperator(op string) (string, error) {
	key := strings.ToUpper(strings.Join(strings.Fields(op), " "))
	if norm, ok := operators[key]; ok {
		return norm, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOperator, op)
}

// NormalizeDirection returns ASC or DESC. An empty direction means ASC.
func NormalizeDirection(dir string) (string, error) {
	switch d := strings.ToUpper(strings.TrimSpace(dir)); d {
	case "":
		return "ASC", nil
	case "ASC", "DESC":
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
}

// dangerousPatterns are injection signatures rejected in raw expressions.
var dangerousPatterns = compilePatterns([]string{
	// comments
	`--`,
	`/\*`,
	`\*/`,
	`#`,

	// stacked statements
	`;`,

	// UNION-based exfiltration
	`\bUNION\b`,

	// command execution and timing attacks
	`XP_CMDSHELL`,
	`\bEXEC(UTE)?\s*\(`,
	`SP_EXECUTESQL`,
	`INFORMATION_SCHEMA`,
	`PG_SLEEP\s*\(`,
	`\bSLEEP\s*\(`,
	`BENCHMARK\s*\(`,
	`WAITFOR\s+DELAY`,

	// tautologies
	`\bOR\s+1\s*=\s*1\b`,
	`\bOR\s+'1'\s*=\s*'1'`,
})

// ValidateExpression rejects raw SQL fragments that match a known injection
// pattern. It does not make arbitrary input safe; raw expressions should
// come from code, never from users.
func ValidateExpression(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("%w: empty expression", ErrUnsafeExpression)
	}
	upper := strings.ToUpper(expr)
	for _, re := range dangerousPatterns {
		if re.MatchString(upper) {
			return fmt.Errorf("%w: %q", ErrUnsafeExpression, expr)
		}
	}
	return nil
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

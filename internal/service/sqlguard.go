package service

import (
	"fmt"
	"regexp"
	"strings"

	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
)

// DeviceScopeToken is replaced at execution time with the caller's
// device IN-list. Its presence is what keeps generated SQL tenant-scoped.
const DeviceScopeToken = "__DEVICE_IDS__"

var dangerousKeywords = []string{
	"insert", "update", "delete", "drop", "truncate",
	"alter", "create", "grant", "revoke", "exec", "execute",
}

var (
	statementStartPattern = regexp.MustCompile(`(?i)^\s*(select|with)\b`)
	deviceEqualityPattern = regexp.MustCompile(`(?i)\bdevice_id\s*=\s*'[^']+'`)
	keywordPatterns       = buildKeywordPatterns()
)

func buildKeywordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(dangerousKeywords))
	for _, kw := range dangerousKeywords {
		patterns[kw] = regexp.MustCompile(`(?i)\b` + kw + `\b`)
	}
	return patterns
}

// ValidateSQL statically rejects unsafe or unscoped statements. It never
// rewrites the query; failures carry the specific violated rule so the
// evaluation harness can bucket rejection reasons.
func ValidateSQL(sqlText string) error {
	trimmed := strings.TrimSpace(sqlText)
	if !statementStartPattern.MatchString(trimmed) {
		return fmt.Errorf("%w: statement must start with SELECT or WITH", appErr.ErrUnsafeQuery)
	}
	for _, kw := range dangerousKeywords {
		if keywordPatterns[kw].MatchString(trimmed) {
			return fmt.Errorf("%w: dangerous keyword: %s", appErr.ErrUnsafeQuery, kw)
		}
	}
	if !strings.Contains(trimmed, DeviceScopeToken) && !deviceEqualityPattern.MatchString(trimmed) {
		return fmt.Errorf("%w: missing device filter", appErr.ErrUnsafeQuery)
	}
	return nil
}

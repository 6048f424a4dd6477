package evaluation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/telemetra/fleetquery/internal/model"
	"github.com/telemetra/fleetquery/internal/service"
)

const (
	ComplexitySimple  = "simple"
	ComplexityMedium  = "medium"
	ComplexityComplex = "complex"
)

var (
	statementStartRe = regexp.MustCompile(`(?i)^\s*(select|with)\b`)
	limitClauseRe    = regexp.MustCompile(`(?i)\blimit\s+\d+`)
	deviceEqualityRe = regexp.MustCompile(`(?i)\bdevice_id\s*(=|in)\s*`)
	cteRe            = regexp.MustCompile(`(?i)\bwith\b|,\s*\w+\s+as\s*\(`)
	subqueryRe       = regexp.MustCompile(`(?i)\(\s*select\b`)
	cteBodyRe        = regexp.MustCompile(`(?i)\bas\s*\(\s*select\b`)
	joinRe           = regexp.MustCompile(`(?i)\bjoin\b`)
	windowFnRe       = regexp.MustCompile(`(?i)\bover\s*\(`)

	dangerousRe = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|truncate|alter|create|grant|revoke|exec|execute)\b`)
)

// SyntaxCheck scores statement shape without touching the database.
// Starts at 1.0 and subtracts fixed penalties, floored at 0.
func SyntaxCheck(sqlText string) model.EvaluationResult {
	trimmed := strings.TrimSpace(sqlText)
	var reasons []string
	if !statementStartRe.MatchString(trimmed) || dangerousRe.MatchString(trimmed) {
		return model.EvaluationResult{
			Name:        "syntax",
			Score:       0,
			Label:       "invalid",
			Explanation: "statement shape or keyword violation",
		}
	}
	score := 1.0
	if !strings.Contains(trimmed, service.DeviceScopeToken) && !deviceEqualityRe.MatchString(trimmed) {
		score -= 0.3
		reasons = append(reasons, "missing device filter")
	}
	if !limitClauseRe.MatchString(trimmed) {
		score -= 0.2
		reasons = append(reasons, "missing limit clause")
	}
	if !balancedParens(trimmed) {
		score -= 0.3
		reasons = append(reasons, "unbalanced parentheses")
	}
	if score < 0 {
		score = 0
	}
	label := "valid"
	if len(reasons) > 0 {
		label = "degraded"
	}
	return model.EvaluationResult{
		Name:        "syntax",
		Score:       score,
		Label:       label,
		Explanation: strings.Join(reasons, "; "),
	}
}

// ExecutionCheck is binary: the record either carries an engine error or
// it does not.
func ExecutionCheck(rec *model.ChatRecord) model.EvaluationResult {
	if rec.ExecutionError != "" {
		return model.EvaluationResult{
			Name:        "execution",
			Score:       0,
			Label:       "failed",
			Explanation: rec.ExecutionError,
		}
	}
	return model.EvaluationResult{Name: "execution", Score: 1.0, Label: "ok"}
}

// ComplexityWeight counts structural features: CTEs weigh 2, subqueries
// and joins 1, window functions 1.5.
func ComplexityWeight(sqlText string) float64 {
	ctes := len(cteRe.FindAllString(sqlText, -1))
	// CTE bodies open with "AS (SELECT" and must not double-count as
	// subqueries.
	subqueries := len(subqueryRe.FindAllString(sqlText, -1)) - len(cteBodyRe.FindAllString(sqlText, -1))
	if subqueries < 0 {
		subqueries = 0
	}
	joins := len(joinRe.FindAllString(sqlText, -1))
	windows := len(windowFnRe.FindAllString(sqlText, -1))
	return float64(ctes)*2 + float64(subqueries) + float64(joins) + float64(windows)*1.5
}

// ComplexityCheck buckets the weighted feature count. The buckets
// partition all non-negative weights.
func ComplexityCheck(sqlText string) model.EvaluationResult {
	weight := ComplexityWeight(sqlText)
	var label string
	var score float64
	switch {
	case weight <= 1:
		label, score = ComplexitySimple, 0.33
	case weight <= 4:
		label, score = ComplexityMedium, 0.66
	default:
		label, score = ComplexityComplex, 1.0
	}
	return model.EvaluationResult{
		Name:        "complexity",
		Score:       score,
		Label:       label,
		Explanation: fmt.Sprintf("weighted feature count %.1f", weight),
	}
}

// NormalizeJudgeScore maps a 1-5 rating linearly onto [0,1].
func NormalizeJudgeScore(raw int) float64 {
	return float64(raw-1) / 4
}

func balancedParens(s string) bool {
	depth := 0
	inString := false
	for _, ch := range s {
		switch {
		case ch == '\'':
			inString = !inString
		case inString:
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && !inString
}

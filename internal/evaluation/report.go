package evaluation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/telemetra/fleetquery/internal/model"
)

type recordScores struct {
	syntax        model.EvaluationResult
	execution     model.EvaluationResult
	complexity    model.EvaluationResult
	relevance     *model.EvaluationResult
	hallucination *model.EvaluationResult
}

// buildReport aggregates per-record scores. Judge results labeled "error"
// are excluded from averages instead of dragging them to zero.
func buildReport(date string, scored []recordScores) *model.EvaluationReport {
	report := &model.EvaluationReport{
		Date:           date,
		TotalQueries:   len(scored),
		ComplexityDist: map[string]int{},
	}
	var syntaxSum, execSum float64
	var relevanceSum, hallucinationSum float64
	var relevanceN, hallucinationN, judged int
	errorCounts := map[string]int{}
	for _, s := range scored {
		syntaxSum += s.syntax.Score
		execSum += s.execution.Score
		report.ComplexityDist[s.complexity.Label]++
		if s.execution.Label == "failed" && s.execution.Explanation != "" {
			errorCounts[firstLine(s.execution.Explanation)]++
		}
		if s.relevance != nil || s.hallucination != nil {
			judged++
		}
		if s.relevance != nil && s.relevance.Label != "error" {
			relevanceSum += s.relevance.Score
			relevanceN++
		}
		if s.hallucination != nil && s.hallucination.Label != "error" {
			hallucinationSum += s.hallucination.Score
			hallucinationN++
		}
	}
	n := float64(len(scored))
	if n > 0 {
		report.SyntaxValidRate = syntaxSum / n
		report.ExecutionSuccessRate = execSum / n
	}
	if relevanceN > 0 {
		report.AvgRelevance = relevanceSum / float64(relevanceN)
	}
	if hallucinationN > 0 {
		report.AvgHallucinationScore = hallucinationSum / float64(hallucinationN)
	}
	report.LLMEvaluatedCount = judged
	report.TopErrors = topErrors(errorCounts, 5)
	return report
}

// RenderText is the human-readable multi-line rendering.
func RenderText(r *model.EvaluationReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query evaluation report for %s\n", r.Date)
	fmt.Fprintf(&sb, "  queries evaluated:      %d\n", r.TotalQueries)
	fmt.Fprintf(&sb, "  syntax valid rate:      %.2f\n", r.SyntaxValidRate)
	fmt.Fprintf(&sb, "  execution success rate: %.2f\n", r.ExecutionSuccessRate)
	fmt.Fprintf(&sb, "  avg relevance:          %.2f (judged %d)\n", r.AvgRelevance, r.LLMEvaluatedCount)
	fmt.Fprintf(&sb, "  avg hallucination:      %.2f\n", r.AvgHallucinationScore)
	fmt.Fprintf(&sb, "  complexity:             simple=%d medium=%d complex=%d\n",
		r.ComplexityDist[ComplexitySimple], r.ComplexityDist[ComplexityMedium], r.ComplexityDist[ComplexityComplex])
	if len(r.TopErrors) > 0 {
		sb.WriteString("  top errors:\n")
		for _, e := range r.TopErrors {
			fmt.Fprintf(&sb, "    - %s\n", e)
		}
	}
	return sb.String()
}

// SummaryLine is the machine-parsable single-line rendering.
func SummaryLine(r *model.EvaluationReport) string {
	return fmt.Sprintf("eval date=%s total=%d syntax=%.2f exec=%.2f relevance=%.2f hallucination=%.2f judged=%d",
		r.Date, r.TotalQueries, r.SyntaxValidRate, r.ExecutionSuccessRate,
		r.AvgRelevance, r.AvgHallucinationScore, r.LLMEvaluatedCount)
}

func topErrors(counts map[string]int, limit int) []string {
	type entry struct {
		msg   string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for msg, count := range counts {
		entries = append(entries, entry{msg, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].msg < entries[j].msg
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s (%d)", e.msg, e.count))
	}
	return out
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

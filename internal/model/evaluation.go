package model

// EvaluationResult scores one aspect of a single historical query.
// Label "error" marks judge failures, which are excluded from averages.
type EvaluationResult struct {
	Name        string            `json:"name"`
	Score       float64           `json:"score"`
	Label       string            `json:"label,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type EvaluationReport struct {
	Date                  string         `json:"date"`
	TotalQueries          int            `json:"total_queries"`
	SyntaxValidRate       float64        `json:"syntax_valid_rate"`
	ExecutionSuccessRate  float64        `json:"execution_success_rate"`
	AvgRelevance          float64        `json:"avg_relevance"`
	AvgHallucinationScore float64        `json:"avg_hallucination_score"`
	LLMEvaluatedCount     int            `json:"llm_evaluated_count"`
	ComplexityDist        map[string]int `json:"complexity_distribution"`
	TopErrors             []string       `json:"top_errors"`
}

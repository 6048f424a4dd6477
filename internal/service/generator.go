package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/telemetra/fleetquery/internal/ai"
	"github.com/telemetra/fleetquery/internal/model"
	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
)

// QueryPlan is the strict decode target for the model's JSON reply.
type QueryPlan struct {
	SQL               string `json:"sql"`
	VisualizationType string `json:"visualization_type"`
	Explanation       string `json:"explanation"`
}

type Generator struct {
	provider  ai.IGenerateProvider
	model     string
	maxTokens int64
	timeout   time.Duration
}

func NewGenerator(provider ai.IGenerateProvider, model string, maxTokens int64, timeout time.Duration) *Generator {
	return &Generator{
		provider:  provider,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

// Generate turns a question plus retrieved context into a validated-shape
// query plan. Truncated or undecodable model output fails the request; no
// fallback SQL is ever invented.
func (g *Generator) Generate(ctx context.Context, question string, docs []model.RetrievedDocument, deviceRule string) (*QueryPlan, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	contextBlock := FormatContext(docs)
	if contextBlock == "" {
		contextBlock = "(no retrieved context, rely on the hard rules above)"
	}
	prompt := renderTemplate(ctx, queryPromptTemplate, map[string]string{
		"question":             question,
		"retrieved_context":    contextBlock,
		"assigned_device_rule": deviceRule,
	})
	res, err := g.provider.Generate(ctx, g.model, prompt, ai.GenerateOptions{
		MaxTokens:   g.maxTokens,
		PrefillJSON: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrGenerationUnavailable, err)
	}
	logutil.GetLogger(ctx).Info("query generation completed",
		zap.Int64("input_tokens", res.InputTokens),
		zap.Int64("output_tokens", res.OutputTokens),
		zap.Bool("truncated", res.Truncated))
	if res.Truncated {
		// Partial SQL must never reach the executor.
		return nil, fmt.Errorf("%w: response hit the token budget, try a narrower question", appErr.ErrTruncatedGeneration)
	}
	repaired, err := RepairModelJSON(res.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrMalformedGeneration, err)
	}
	var plan QueryPlan
	if err := json.Unmarshal([]byte(repaired), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrMalformedGeneration, err)
	}
	if strings.TrimSpace(plan.SQL) == "" {
		return nil, fmt.Errorf("%w: reply carries no sql field", appErr.ErrMalformedGeneration)
	}
	if plan.VisualizationType == "" {
		plan.VisualizationType = "table"
	}
	return &plan, nil
}

// RepairModelJSON extracts the outermost {...} span from raw model output
// and escapes raw control characters found inside string literals. Models
// routinely emit literal newlines inside string values, which is invalid
// JSON.
func RepairModelJSON(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no json object found in model output")
	}
	return escapeControlChars(clean[start : end+1]), nil
}

func escapeControlChars(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inString := false
	escaped := false
	for _, ch := range s {
		if escaped {
			sb.WriteRune(ch)
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				sb.WriteRune(ch)
				escaped = true
			case '"':
				sb.WriteRune(ch)
				inString = false
			case '\n':
				sb.WriteString(`\n`)
			case '\r':
				sb.WriteString(`\r`)
			case '\t':
				sb.WriteString(`\t`)
			default:
				sb.WriteRune(ch)
			}
			continue
		}
		if ch == '"' {
			inString = true
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}

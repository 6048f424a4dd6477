package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/telemetra/fleetquery/internal/ai"
)

const insightPreviewRows = 10

type InsightService struct {
	provider  ai.IGenerateProvider
	model     string
	maxTokens int64
	timeout   time.Duration
}

func NewInsightService(provider ai.IGenerateProvider, model string, maxTokens int64, timeout time.Duration) *InsightService {
	return &InsightService{
		provider:  provider,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

// Summarize turns result rows into a short narrative. Callers treat
// failures as best-effort: data still goes back without a narrative.
func (s *InsightService) Summarize(ctx context.Context, question, sqlText string, rowData []map[string]interface{}) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	preview := rowData
	if len(preview) > insightPreviewRows {
		preview = preview[:insightPreviewRows]
	}
	previewJSON, err := json.Marshal(preview)
	if err != nil {
		return "", fmt.Errorf("encode row preview: %w", err)
	}
	prompt := renderTemplate(ctx, insightPromptTemplate, map[string]string{
		"question":      question,
		"sql":           sqlText,
		"preview_count": strconv.Itoa(len(preview)),
		"total_count":   strconv.Itoa(len(rowData)),
		"rows_preview":  string(previewJSON),
	})
	res, err := s.provider.Generate(ctx, s.model, prompt, ai.GenerateOptions{MaxTokens: s.maxTokens})
	if err != nil {
		return "", err
	}
	logutil.GetLogger(ctx).Debug("insight generation completed",
		zap.Int64("input_tokens", res.InputTokens),
		zap.Int64("output_tokens", res.OutputTokens))
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", fmt.Errorf("empty insight response")
	}
	return text, nil
}

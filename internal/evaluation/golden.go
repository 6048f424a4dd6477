package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/telemetra/fleetquery/internal/model"
	"github.com/telemetra/fleetquery/internal/reportstore"
)

const (
	goldenTargetCount   = 50
	goldenScanLimit     = 2000
	goldenMinQuestion   = 15
	goldenDatasetKey    = "golden/analytics-golden-queries.json"
	goldenDatasetName   = "analytics-golden-queries"
	goldenSourceComment = "Curated high-quality analytics queries for evaluation and testing"
)

type GoldenExample struct {
	Question  string `json:"question"`
	SQL       string `json:"sql"`
	Insights  string `json:"insights"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Timestamp int64  `json:"timestamp"`
}

type GoldenDataset struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Examples    []GoldenExample `json:"examples"`
}

// AnsweredSource lists records whose full pipeline succeeded.
type AnsweredSource interface {
	ListAnswered(ctx context.Context, limit int) ([]model.ChatRecord, error)
}

// ExportGolden curates a golden dataset from fully answered history: most
// recent first, deduplicated by normalized question, short or error-shaped
// entries dropped, capped at the target count.
func ExportGolden(ctx context.Context, chats AnsweredSource, store reportstore.Store) (*GoldenDataset, error) {
	records, err := chats.ListAnswered(ctx, goldenScanLimit)
	if err != nil {
		return nil, fmt.Errorf("scan answered history: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no answered queries in history")
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})

	seen := map[string]struct{}{}
	examples := make([]GoldenExample, 0, goldenTargetCount)
	for _, rec := range records {
		question := strings.TrimSpace(rec.Question)
		normalized := strings.ToLower(question)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		if utf8.RuneCountInString(question) < goldenMinQuestion {
			continue
		}
		lowerSQL := strings.ToLower(rec.SQL)
		if strings.Contains(lowerSQL, "error") && !strings.Contains(lowerSQL, "select") {
			continue
		}
		examples = append(examples, GoldenExample{
			Question:  question,
			SQL:       rec.SQL,
			Insights:  rec.Insights,
			UserID:    rec.UserID,
			SessionID: rec.SessionID,
			Timestamp: rec.Timestamp,
		})
		if len(examples) >= goldenTargetCount {
			break
		}
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("no examples passed quality filters")
	}

	dataset := &GoldenDataset{
		Name:        goldenDatasetName,
		Description: goldenSourceComment,
		Examples:    examples,
	}
	if store != nil {
		data, err := json.MarshalIndent(dataset, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := store.Save(ctx, goldenDatasetKey, data); err != nil {
			return nil, fmt.Errorf("save golden dataset: %w", err)
		}
	}
	logutil.GetLogger(ctx).Info("golden dataset exported",
		zap.Int("scanned", len(records)), zap.Int("kept", len(examples)))
	return dataset, nil
}

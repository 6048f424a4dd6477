package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/telemetra/fleetquery/internal/model"
	"github.com/telemetra/fleetquery/internal/notify"
	"github.com/telemetra/fleetquery/internal/reportstore"
)

// HistorySource is the slice of the chat repository the harness reads.
type HistorySource interface {
	ListWindow(ctx context.Context, fromTs, toTs int64) ([]model.ChatRecord, error)
}

type Service struct {
	chats     HistorySource
	judge     *Judge
	sampleCap int
	window    time.Duration
	notifier  notify.Notifier
	store     reportstore.Store
}

func NewService(chats HistorySource, judge *Judge, sampleCap int, window time.Duration, notifier notify.Notifier, store reportstore.Store) *Service {
	if sampleCap <= 0 {
		sampleCap = 20
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Service{
		chats:     chats,
		judge:     judge,
		sampleCap: sampleCap,
		window:    window,
		notifier:  notifier,
		store:     store,
	}
}

// Run evaluates the trailing window of chat history. An empty window is a
// silent no-op: no report, no notification.
func (s *Service) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	now := time.Now()
	fromTs := now.Add(-s.window).UnixMilli()
	records, err := s.chats.ListWindow(ctx, fromTs, now.UnixMilli())
	if err != nil {
		return fmt.Errorf("scan chat window: %w", err)
	}
	if len(records) == 0 {
		logger.Info("no queries in evaluation window, skipping report")
		return nil
	}

	scored := make([]recordScores, 0, len(records))
	for i := range records {
		rec := &records[i]
		rs := recordScores{
			syntax:     SyntaxCheck(rec.SQL),
			execution:  ExecutionCheck(rec),
			complexity: ComplexityCheck(rec.SQL),
		}
		// Judge calls run serially and only for the sampled head, keeping
		// per-run model cost bounded.
		if i < s.sampleCap {
			relevance := s.judge.Relevance(ctx, rec)
			hallucination := s.judge.Hallucination(ctx, rec)
			rs.relevance = &relevance
			rs.hallucination = &hallucination
		}
		scored = append(scored, rs)
	}

	report := buildReport(now.Format("2006-01-02"), scored)
	text := RenderText(report)
	logger.Info("evaluation completed", zap.String("summary", SummaryLine(report)))

	if s.store != nil {
		if err := s.archive(ctx, report); err != nil {
			logger.Error("failed to archive evaluation report", zap.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, text); err != nil {
			logger.Error("failed to deliver evaluation report", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) archive(ctx context.Context, report *model.EvaluationReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	key := fmt.Sprintf("evaluation/%s.json", report.Date)
	return s.store.Save(ctx, key, data)
}

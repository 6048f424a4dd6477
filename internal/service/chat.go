package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/telemetra/fleetquery/internal/model"
)

type AskRequest struct {
	Question  string
	SessionID string
	UserID    string
	DeviceIDs []string
}

type AskResult struct {
	SQL               string                   `json:"sql"`
	VisualizationType string                   `json:"visualization_type"`
	Explanation       string                   `json:"explanation"`
	Data              []map[string]interface{} `json:"data"`
	Insights          string                   `json:"insights"`
}

// Pipeline stage contracts. The concrete services in this package satisfy
// them; tests substitute fakes.
type ContextRetriever interface {
	Retrieve(ctx context.Context, question string) []model.RetrievedDocument
}

type QueryPlanner interface {
	Generate(ctx context.Context, question string, docs []model.RetrievedDocument, deviceRule string) (*QueryPlan, error)
}

type QueryRunner interface {
	Execute(ctx context.Context, sqlText string, deviceIDs []string) ([]map[string]interface{}, error)
}

type InsightWriter interface {
	Summarize(ctx context.Context, question, sqlText string, rowData []map[string]interface{}) (string, error)
}

type ChatLog interface {
	Insert(ctx context.Context, rec *model.ChatRecord) error
	ListBySession(ctx context.Context, userID, sessionID string, limit int) ([]model.ChatRecord, error)
}

// ChatService runs the end-to-end pipeline. The steps are strictly
// sequential: each stage's output is the next stage's input. Every
// question that engages the pipeline leaves exactly one history record,
// including generation and validation rejections, so the evaluation
// harness sees failures and not just the survivors.
type ChatService struct {
	retriever ContextRetriever
	generator QueryPlanner
	executor  QueryRunner
	insight   InsightWriter
	chats     ChatLog
}

func NewChatService(retriever ContextRetriever, generator QueryPlanner, executor QueryRunner, insight InsightWriter, chats ChatLog) *ChatService {
	return &ChatService{
		retriever: retriever,
		generator: generator,
		executor:  executor,
		insight:   insight,
		chats:     chats,
	}
}

func (s *ChatService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("user_id", req.UserID),
		zap.String("session_id", req.SessionID))

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	docs := s.retriever.Retrieve(ctx, question)
	logger.Info("context retrieved", zap.Int("documents", len(docs)))

	record := &model.ChatRecord{
		UserID:    req.UserID,
		Timestamp: time.Now().UnixMilli(),
		SessionID: req.SessionID,
		Question:  question,
	}

	plan, err := s.generator.Generate(ctx, question, docs, deviceRuleFor(req.DeviceIDs))
	if err != nil {
		// No usable SQL exists; record the failure text in its place the
		// way downstream reporting expects.
		record.SQL = "ERROR: " + err.Error()
		record.ExecutionError = err.Error()
		s.persist(ctx, logger, record)
		return nil, err
	}
	record.SQL = plan.SQL
	record.VisualizationType = plan.VisualizationType
	record.Explanation = plan.Explanation

	if err := ValidateSQL(plan.SQL); err != nil {
		logger.Warn("generated sql rejected", zap.String("sql", plan.SQL), zap.Error(err))
		record.ExecutionError = err.Error()
		s.persist(ctx, logger, record)
		return nil, err
	}

	rowData, err := s.executor.Execute(ctx, plan.SQL, req.DeviceIDs)
	if err != nil {
		record.ExecutionError = err.Error()
		s.persist(ctx, logger, record)
		return nil, err
	}
	record.RowCount = len(rowData)

	// Insight failure downgrades to data-only rather than failing a
	// request whose SQL already ran.
	insights, err := s.insight.Summarize(ctx, question, plan.SQL, rowData)
	if err != nil {
		logger.Warn("insight generation failed, returning data without narrative", zap.Error(err))
		insights = ""
	}
	record.Insights = insights
	s.persist(ctx, logger, record)

	return &AskResult{
		SQL:               plan.SQL,
		VisualizationType: plan.VisualizationType,
		Explanation:       plan.Explanation,
		Data:              rowData,
		Insights:          insights,
	}, nil
}

func (s *ChatService) persist(ctx context.Context, logger *zap.Logger, record *model.ChatRecord) {
	if err := s.chats.Insert(ctx, record); err != nil {
		logger.Error("failed to persist chat record", zap.Error(err))
	}
}

func (s *ChatService) History(ctx context.Context, userID, sessionID string, limit int) ([]model.ChatRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.chats.ListBySession(ctx, userID, sessionID, limit)
}

func deviceRuleFor(deviceIDs []string) string {
	if len(deviceIDs) == 0 {
		return ""
	}
	return fmt.Sprintf("The caller is scoped to %d device(s).", len(deviceIDs))
}

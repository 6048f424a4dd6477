package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/telemetra/fleetquery/internal/model"
	"github.com/telemetra/fleetquery/internal/repo"
	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
)

const feedbackTitleMaxRunes = 80

type FeedbackRequest struct {
	UserID            string
	Timestamp         int64
	Rating            string
	Question          string
	SQL               string
	VisualizationType string
	Comment           string
}

type FeedbackService struct {
	chats     *repo.ChatRepo
	knowledge *repo.KnowledgeRepo
	embed     *EmbedService
}

func NewFeedbackService(chats *repo.ChatRepo, knowledge *repo.KnowledgeRepo, embed *EmbedService) *FeedbackService {
	return &FeedbackService{chats: chats, knowledge: knowledge, embed: embed}
}

// Record persists the rating and, on positive feedback, indexes the
// question/SQL pair as a retrievable example. Returns whether the corpus
// was mutated.
func (s *FeedbackService) Record(ctx context.Context, req FeedbackRequest) (bool, error) {
	if req.Rating != model.RatingPositive && req.Rating != model.RatingNegative {
		return false, fmt.Errorf("%w: rating must be positive or negative", appErr.ErrInvalid)
	}
	fb := &model.Feedback{
		Rating:  req.Rating,
		Comment: req.Comment,
		RatedAt: time.Now().UnixMilli(),
	}
	if err := s.chats.AttachFeedback(ctx, req.UserID, req.Timestamp, fb); err != nil {
		return false, err
	}
	if req.Rating != model.RatingPositive {
		// Negative comments stay on the record for human triage.
		return false, nil
	}
	if err := s.indexExample(ctx, req); err != nil {
		logutil.GetLogger(ctx).Error("positive feedback indexing failed",
			zap.String("user_id", req.UserID), zap.Error(err))
		return false, err
	}
	return true, nil
}

func (s *FeedbackService) indexExample(ctx context.Context, req FeedbackRequest) error {
	viz := req.VisualizationType
	if viz == "" {
		viz = "table"
	}
	content := fmt.Sprintf("Q: %s\nSQL: %s\nVisualization: %s", req.Question, req.SQL, viz)
	emb, err := s.embed.Embed(ctx, content, TaskTypeDocument)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	doc := &model.KnowledgeDocument{
		ID:        uuid.NewString(),
		DocType:   model.DocTypeExample,
		Title:     FeedbackTitle(req.Question),
		Content:   content,
		Embedding: emb,
		Metadata: map[string]string{
			"source":   "feedback",
			"rated_by": req.UserID,
		},
		Ctime: now,
		Mtime: now,
	}
	return s.knowledge.Upsert(ctx, doc)
}

func (s *FeedbackService) ListNegative(ctx context.Context) ([]model.ChatRecord, error) {
	return s.chats.ListNegativeFeedback(ctx)
}

func (s *FeedbackService) Delete(ctx context.Context, userID string, ts int64) error {
	return s.chats.ClearFeedback(ctx, userID, ts)
}

// FeedbackTitle derives the corpus upsert key from the question. Two
// questions truncating to the same title replace one another; the
// transactional upsert in the repo keeps that race-free.
func FeedbackTitle(question string) string {
	trimmed := strings.TrimSpace(question)
	runes := []rune(trimmed)
	if len(runes) > feedbackTitleMaxRunes {
		trimmed = string(runes[:feedbackTitleMaxRunes])
	}
	return "user feedback: " + trimmed
}

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
	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
	"github.com/telemetra/fleetquery/internal/repo"
)

type KnowledgeService struct {
	knowledge *repo.KnowledgeRepo
	embed     *EmbedService
}

func NewKnowledgeService(knowledge *repo.KnowledgeRepo, embed *EmbedService) *KnowledgeService {
	return &KnowledgeService{knowledge: knowledge, embed: embed}
}

type CreateDocumentRequest struct {
	DocType  model.DocType
	Title    string
	Content  string
	Metadata map[string]string
	Pinned   bool
}

func (s *KnowledgeService) List(ctx context.Context, docType model.DocType) ([]model.KnowledgeDocument, error) {
	if docType != "" && !docType.IsValid() {
		return nil, fmt.Errorf("%w: unknown doc_type %q", appErr.ErrInvalid, docType)
	}
	return s.knowledge.List(ctx, docType)
}

func (s *KnowledgeService) Create(ctx context.Context, req CreateDocumentRequest) (*model.KnowledgeDocument, error) {
	if !req.DocType.IsValid() {
		return nil, fmt.Errorf("%w: unknown doc_type %q", appErr.ErrInvalid, req.DocType)
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", appErr.ErrInvalid)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = deriveTitle(content)
	}
	emb, err := s.embed.Embed(ctx, content, TaskTypeDocument)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()
	doc := &model.KnowledgeDocument{
		ID:        uuid.NewString(),
		DocType:   req.DocType,
		Title:     title,
		Content:   content,
		Embedding: emb,
		Metadata:  req.Metadata,
		Pinned:    req.Pinned,
		Ctime:     now,
		Mtime:     now,
	}
	if err := s.knowledge.Upsert(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update re-embeds only when the content actually changed.
func (s *KnowledgeService) Update(ctx context.Context, id string, title, content string, metadata map[string]string) (*model.KnowledgeDocument, error) {
	existing, err := s.knowledge.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()
	newContent := strings.TrimSpace(content)
	if newContent != "" && newContent != existing.Content {
		emb, err := s.embed.Embed(ctx, newContent, TaskTypeDocument)
		if err != nil {
			return nil, err
		}
		if err := s.knowledge.UpdateContent(ctx, id, newContent, emb, now); err != nil {
			return nil, err
		}
		existing.Content = newContent
	}
	newTitle := strings.TrimSpace(title)
	if newTitle == "" {
		newTitle = existing.Title
	}
	if metadata == nil {
		metadata = existing.Metadata
	}
	if newTitle != existing.Title || metadata != nil {
		if err := s.knowledge.UpdateMeta(ctx, id, newTitle, metadata, now); err != nil {
			return nil, err
		}
		existing.Title = newTitle
		existing.Metadata = metadata
	}
	existing.Mtime = now
	return existing, nil
}

func (s *KnowledgeService) Delete(ctx context.Context, id string) error {
	return s.knowledge.Delete(ctx, id)
}

func (s *KnowledgeService) SetPinned(ctx context.Context, id string, pinned bool) error {
	return s.knowledge.SetPinned(ctx, id, pinned, time.Now().UnixMilli())
}

// Reseed upserts the built-in schema, example and domain documents. It is
// idempotent: the title key makes repeated runs converge.
func (s *KnowledgeService) Reseed(ctx context.Context) (int, error) {
	logger := logutil.GetLogger(ctx)
	count := 0
	for _, seed := range builtinDocuments() {
		emb, err := s.embed.Embed(ctx, seed.Content, TaskTypeDocument)
		if err != nil {
			return count, err
		}
		now := time.Now().UnixMilli()
		doc := seed
		doc.ID = uuid.NewString()
		doc.Embedding = emb
		doc.Ctime = now
		doc.Mtime = now
		if err := s.knowledge.Upsert(ctx, &doc); err != nil {
			return count, err
		}
		logger.Info("seeded knowledge document",
			zap.String("title", doc.Title), zap.String("doc_type", string(doc.DocType)))
		count++
	}
	return count, nil
}

func deriveTitle(content string) string {
	line := content
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	runes := []rune(strings.TrimSpace(line))
	if len(runes) > 60 {
		runes = runes[:60]
	}
	return string(runes)
}

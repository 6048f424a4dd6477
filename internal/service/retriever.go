package service

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/telemetra/fleetquery/internal/model"
	"github.com/telemetra/fleetquery/internal/repo"
)

type Retriever struct {
	embed     *EmbedService
	knowledge *repo.KnowledgeRepo
	topK      int
}

func NewRetriever(embed *EmbedService, knowledge *repo.KnowledgeRepo, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{embed: embed, knowledge: knowledge, topK: topK}
}

// Retrieve returns pinned documents followed by the top-K nearest
// neighbors. It never fails: on embedding or search errors the result is
// empty and the caller falls back to the static rules in the prompt.
func (r *Retriever) Retrieve(ctx context.Context, question string) []model.RetrievedDocument {
	logger := logutil.GetLogger(ctx).With(zap.String("question", question))

	queryEmb, err := r.embed.Embed(ctx, question, TaskTypeQuery)
	if err != nil {
		logger.Warn("question embedding failed, retrieval degraded to empty", zap.Error(err))
		return nil
	}
	pinned, err := r.knowledge.ListPinned(ctx)
	if err != nil {
		logger.Warn("pinned document fetch failed, retrieval degraded to empty", zap.Error(err))
		return nil
	}
	pinnedTitles := make([]string, 0, len(pinned))
	results := make([]model.RetrievedDocument, 0, len(pinned)+r.topK)
	for _, doc := range pinned {
		pinnedTitles = append(pinnedTitles, doc.Title)
		results = append(results, model.RetrievedDocument{KnowledgeDocument: doc, Similarity: 1.0})
	}
	ranked, err := r.knowledge.SearchNearest(ctx, queryEmb, r.topK, pinnedTitles)
	if err != nil {
		logger.Warn("nearest-neighbor search failed, retrieval degraded to empty", zap.Error(err))
		return nil
	}
	results = append(results, ranked...)
	for _, doc := range ranked {
		logger.Debug("retrieved document",
			zap.String("title", doc.Title),
			zap.String("doc_type", string(doc.DocType)),
			zap.Float64("similarity", doc.Similarity))
	}
	return results
}

// FormatContext groups retrieved documents into labeled sections for
// prompt injection.
func FormatContext(docs []model.RetrievedDocument) string {
	if len(docs) == 0 {
		return ""
	}
	sections := map[model.DocType][]model.RetrievedDocument{}
	for _, doc := range docs {
		sections[doc.DocType] = append(sections[doc.DocType], doc)
	}
	var sb strings.Builder
	appendSection := func(docType model.DocType) {
		group := sections[docType]
		if len(group) == 0 {
			return
		}
		var label string
		switch docType {
		case model.DocTypeSchema:
			label = "Database Schema"
		case model.DocTypeExample:
			label = "Query Examples"
		case model.DocTypeDomain:
			label = "Domain Knowledge"
		}
		sb.WriteString("## " + label + "\n")
		for _, doc := range group {
			sb.WriteString("### " + doc.Title + "\n")
			sb.WriteString(strings.TrimSpace(doc.Content))
			sb.WriteString("\n\n")
		}
	}
	appendSection(model.DocTypeSchema)
	appendSection(model.DocTypeExample)
	appendSection(model.DocTypeDomain)
	return strings.TrimSpace(sb.String())
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/telemetra/fleetquery/internal/ai"
	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
)

const (
	TaskTypeQuery    = "RETRIEVAL_QUERY"
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
)

// EmbedService wraps the embedding provider with a process-lifetime cache.
// Concurrent first-use may populate the same key twice, which is harmless.
type EmbedService struct {
	provider ai.IEmbedProvider
	model    string
	dim      int
	cache    *expirable.LRU[string, []float32]
}

func NewEmbedService(provider ai.IEmbedProvider, model string, dim int) *EmbedService {
	cache := expirable.NewLRU[string, []float32](4096, nil, 2*time.Hour)
	return &EmbedService{
		provider: provider,
		model:    model,
		dim:      dim,
		cache:    cache,
	}
}

func (s *EmbedService) Dim() int {
	return s.dim
}

func (s *EmbedService) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := s.cacheKey(taskType, text)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}
	emb, err := s.provider.Embed(ctx, s.model, text, taskType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingService, err)
	}
	if len(emb) != s.dim {
		return nil, fmt.Errorf("%w: got %d dimensions, corpus uses %d", appErr.ErrEmbeddingService, len(emb), s.dim)
	}
	s.cache.Add(key, emb)
	return emb, nil
}

func (s *EmbedService) cacheKey(taskType, text string) string {
	hash := sha256.Sum256([]byte(text))
	return s.model + ":" + taskType + ":" + hex.EncodeToString(hash[:])
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type GenerateOptions struct {
	System    string
	MaxTokens int64
	// PrefillJSON seeds the assistant turn with "{" to bias the model
	// toward emitting a bare JSON object.
	PrefillJSON bool
}

type GenerateResult struct {
	Text string
	// Truncated is set when the model stopped because it hit the token
	// budget rather than finishing naturally.
	Truncated    bool
	InputTokens  int64
	OutputTokens int64
}

type IGenerateProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string, opts GenerateOptions) (*GenerateResult, error)
}

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type GenerateFactory func(args interface{}) (IGenerateProvider, error)
type EmbedFactory func(args interface{}) (IEmbedProvider, error)

var (
	generateRegistry = map[string]GenerateFactory{}
	embedRegistry    = map[string]EmbedFactory{}
)

func RegisterGenerate(name string, factory GenerateFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	generateRegistry[key] = factory
}

func RegisterEmbed(name string, factory EmbedFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func NewGenerateProvider(name string, args interface{}) (IGenerateProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("generation.provider is required")
	}
	factory := generateRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported generation provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("embedding.provider is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embedding provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}

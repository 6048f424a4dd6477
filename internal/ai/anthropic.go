package ai

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicConfig struct {
	APIKey string `json:"api_key"`
}

type anthropicProvider struct {
	client anthropic.Client
	ok     bool
}

func (p *anthropicProvider) Name() string {
	return "anthropic"
}

func (p *anthropicProvider) Generate(ctx context.Context, model string, prompt string, opts GenerateOptions) (*GenerateResult, error) {
	if !p.ok {
		return nil, ErrUnavailable
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}
	if opts.PrefillJSON {
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock("{")))
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Type: "text", Text: opts.System},
		}
	}
	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if opts.PrefillJSON {
		// The prefilled "{" belongs to the assistant turn, not the reply.
		text = "{" + text
	}
	return &GenerateResult{
		Text:         text,
		Truncated:    msg.StopReason == "max_tokens",
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}, nil
}

func createAnthropicFactory(args interface{}) (IGenerateProvider, error) {
	cfg := &anthropicConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return &anthropicProvider{}, nil
	}
	return &anthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		ok:     true,
	}, nil
}

func init() {
	RegisterGenerate("anthropic", createAnthropicFactory)
}

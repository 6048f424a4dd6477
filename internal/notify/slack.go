package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

type slackNotifier struct {
	webhookURL string
}

func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{webhookURL: webhookURL}
}

func (n *slackNotifier) Notify(ctx context.Context, text string) error {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("```%s```", text),
	}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

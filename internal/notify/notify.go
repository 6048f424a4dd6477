package notify

import "context"

// Notifier delivers evaluation report text to an external channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

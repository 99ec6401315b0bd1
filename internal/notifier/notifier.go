package notifier

import (
	"context"

	"github.com/pfrederiksen/citycast-digest/internal/digest"
)

// Notifier defines the interface for delivering digest messages
type Notifier interface {
	// Notify delivers the messages in order, stopping at the first failure
	Notify(ctx context.Context, messages []digest.Message) error
}

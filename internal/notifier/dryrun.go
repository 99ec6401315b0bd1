package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/pfrederiksen/citycast-digest/internal/digest"
)

// DryRunNotifier prints what would be texted without actually sending
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to out, or stdout when nil
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the messages that would be sent
func (n *DryRunNotifier) Notify(ctx context.Context, messages []digest.Message) error {
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(n.out, "--- SMS %d/%d: %s ---\n", msg.Index, msg.Total, msg.Subject)
		fmt.Fprintln(n.out, msg.Body)
		fmt.Fprintf(n.out, "(Length: %d characters)\n\n", utf8.RuneCountInString(msg.Body))
	}
	return nil
}

package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Placeholder is replaced by the target in message templates.
const Placeholder = "{site}"

// Sender delivers one message through a messaging service.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Format substitutes target into the first placeholder of template.
func Format(template string, target domain.Target) string {
	return strings.Replace(template, Placeholder, string(target), 1)
}

// Compose formats one line per target and joins them with newlines.
func Compose(template string, targets []domain.Target) string {
	lines := make([]string, 0, len(targets))
	for _, t := range targets {
		lines = append(lines, Format(template, t))
	}
	return strings.Join(lines, "\n")
}

// Notifier sends batched messages and swallows delivery failures.
type Notifier struct {
	sender Sender
	log    *zap.Logger
}

func New(sender Sender, log *zap.Logger) *Notifier {
	return &Notifier{sender: sender, log: log}
}

// NotifyBatch sends a single message with one line per target. It does
// nothing for an empty batch.
func (n *Notifier) NotifyBatch(ctx context.Context, targets []domain.Target, template string) {
	if len(targets) == 0 {
		return
	}
	n.deliver(ctx, Compose(template, targets), zap.Int("targets", len(targets)))
}

// Announce sends text as is.
func (n *Notifier) Announce(ctx context.Context, text string) {
	n.deliver(ctx, text)
}

func (n *Notifier) deliver(ctx context.Context, text string, fields ...zap.Field) {
	if err := n.sender.Send(ctx, text); err != nil {
		n.log.Error("notify_failed", append(fields, zap.Error(err))...)
		return
	}
	n.log.Info("notify_sent", append(fields, zap.Int("bytes", len(text)))...)
}

package notify

import (
	"context"
	"log/slog"
	"time"
)

// AsyncDispatcher delivers messages on a goroutine, directly through the
// notifier. It is the fallback when the job queue is unavailable; delivery is
// still fire-and-forget from the caller's point of view.
type AsyncDispatcher struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewAsyncDispatcher(notifier Notifier, logger *slog.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{notifier: notifier, logger: logger}
}

func (d *AsyncDispatcher) Dispatch(msg Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.notifier.Send(ctx, msg); err != nil {
			d.logger.Error("email delivery failed",
				slog.String("kind", string(msg.Kind)),
				slog.String("to", msg.Email),
				slog.String("error", err.Error()),
			)
		}
	}()
}

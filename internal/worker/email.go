package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/notify"
)

// EmailDispatcher implements notify.Dispatcher by enqueueing an
// email_notification job. Dispatch never reports failure to the caller;
// account flows must not fail because the queue is down.
type EmailDispatcher struct {
	queue     *JobQueue
	queueName string
	logger    *slog.Logger
}

func NewEmailDispatcher(queue *JobQueue, queueName string, logger *slog.Logger) *EmailDispatcher {
	return &EmailDispatcher{queue: queue, queueName: queueName, logger: logger}
}

func (d *EmailDispatcher) Dispatch(msg notify.Message) {
	payload := map[string]interface{}{
		"kind":  string(msg.Kind),
		"email": msg.Email,
		"name":  msg.Name,
		"token": msg.Token,
	}
	if err := d.queue.Enqueue(d.queueName, JobTypeEmailNotification, payload); err != nil {
		d.logger.Error("enqueue email failed",
			slog.String("kind", string(msg.Kind)),
			slog.String("to", msg.Email),
			slog.String("error", err.Error()),
		)
	}
}

// EmailHandler returns the consumer-side handler: it rebuilds the message
// from the job payload and delivers it through the notifier. A delivery error
// propagates so the worker's retry path takes over.
func EmailHandler(notifier notify.Notifier) JobHandler {
	return func(ctx context.Context, job *Job) error {
		msg := notify.Message{
			Kind:  notify.Kind(stringField(job.Payload, "kind")),
			Email: stringField(job.Payload, "email"),
			Name:  stringField(job.Payload, "name"),
			Token: stringField(job.Payload, "token"),
		}
		if msg.Email == "" {
			return fmt.Errorf("email job %s has no recipient", job.ID)
		}
		return notifier.Send(ctx, msg)
	}
}

func stringField(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

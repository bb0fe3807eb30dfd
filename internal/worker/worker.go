package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type JobType string

const (
	JobTypeEmailNotification JobType = "email_notification"
	JobTypeTaskReminder      JobType = "task_reminder"
	JobTypeDataExport        JobType = "data_export"
	JobTypeCleanup           JobType = "cleanup"
)

const (
	retryQueue = "retry_queue"
	deadQueue  = "dead_queue"
)

// Job is one unit of background work, serialized as JSON on a redis list.
type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
	ProcessAt time.Time              `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

type WorkerConfig struct {
	RedisClient  *redis.Client
	Concurrency  int
	PollInterval time.Duration
	Queues       []string
	Logger       *slog.Logger
}

// Worker polls the configured queues and runs the registered handler for each
// job. A failing job goes to the retry queue until its attempts are spent,
// then to the dead queue.
type Worker struct {
	client       *redis.Client
	handlers     map[JobType]JobHandler
	queues       []string
	pollInterval time.Duration
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
}

func NewWorker(config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &Worker{
		client:       config.RedisClient,
		handlers:     make(map[JobType]JobHandler),
		queues:       config.Queues,
		pollInterval: pollInterval,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start launches n polling goroutines.
func (w *Worker) Start(n int) {
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go w.poll()
	}
}

// Stop cancels the worker context and waits for the pollers to drain.
func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) poll() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if err := w.processNextJob(); err != nil {
				w.logger.Error("process job failed", slog.String("error", err.Error()))
			}
		}
	}
}

// processNextJob pops at most one job off the queues, in queue order. An
// empty set of queues is not an error. A job whose ProcessAt lies in the
// future goes back to the end of its queue untouched.
func (w *Worker) processNextJob() error {
	for _, queue := range w.queues {
		raw, err := w.client.LPop(w.ctx, queue).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return fmt.Errorf("pop from %s: %w", queue, err)
		}

		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return fmt.Errorf("decode job from %s: %w", queue, err)
		}

		if job.ProcessAt.After(time.Now()) {
			return w.push(queue, &job)
		}

		w.mu.RLock()
		handler, ok := w.handlers[job.Type]
		w.mu.RUnlock()
		if !ok {
			return fmt.Errorf("no handler registered for job type %s", job.Type)
		}

		if err := handler(w.ctx, &job); err != nil {
			return w.retry(&job, err)
		}
		return nil
	}
	return nil
}

func (w *Worker) retry(job *Job, cause error) error {
	job.Attempts++

	w.logger.Warn("job failed",
		slog.String("job_id", job.ID),
		slog.String("type", string(job.Type)),
		slog.Int("attempts", job.Attempts),
		slog.String("error", cause.Error()),
	)

	if job.Attempts >= job.MaxTries {
		return w.push(deadQueue, job)
	}
	return w.push(retryQueue, job)
}

func (w *Worker) push(queue string, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return w.client.RPush(w.ctx, queue, data).Err()
}

// JobQueue is the producer side.
type JobQueue struct {
	client *redis.Client
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client}
}

func (q *JobQueue) Enqueue(queue string, jobType JobType, payload map[string]interface{}) error {
	return q.EnqueueAt(queue, jobType, payload, time.Now())
}

func (q *JobQueue) EnqueueAt(queue string, jobType JobType, payload map[string]interface{}, processAt time.Time) error {
	job := Job{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Type:      jobType,
		Payload:   payload,
		Attempts:  0,
		MaxTries:  3,
		CreatedAt: time.Now(),
		ProcessAt: processAt,
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return q.client.RPush(context.Background(), queue, data).Err()
}

func (q *JobQueue) GetQueueSize(queue string) (int64, error) {
	return q.client.LLen(context.Background(), queue).Result()
}

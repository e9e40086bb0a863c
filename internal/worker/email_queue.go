package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/notification"
)

// TypeEmailSend is the asynq task type for outgoing mail.
const TypeEmailSend = "email:send"

// EmailSender is the delivery side of the queue.
type EmailSender interface {
	Send(ctx context.Context, email notification.Email) error
}

// EmailQueue accepts emails for asynchronous delivery.
type EmailQueue interface {
	Enqueue(ctx context.Context, email notification.Email) error
	Start() error
	Shutdown()
}

// NewEmailTask builds the asynq task for an email.
// Queue-level retries are disabled since the dispatcher applies its own policy.
func NewEmailTask(email notification.Email) (*asynq.Task, error) {
	b, err := json.Marshal(email)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailSend, b, asynq.MaxRetry(0)), nil
}

// HandleEmailTask returns the asynq handler that delivers one email.
func HandleEmailTask(sender EmailSender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var email notification.Email
		if err := json.Unmarshal(task.Payload(), &email); err != nil {
			logger.Error("invalid email task payload", zap.Error(err))
			return fmt.Errorf("decode email task: %w", asynq.SkipRetry)
		}
		if err := sender.Send(ctx, email); err != nil {
			logger.Error("email delivery failed",
				zap.String("message_id", email.ID),
				zap.String("category", string(email.Category)),
				zap.Error(err))
			return err
		}
		return nil
	}
}

// AsynqEmailQueue delivers emails through Redis-backed asynq workers.
type AsynqEmailQueue struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewAsynqEmailQueue wires a client and server on the same Redis database.
func NewAsynqEmailQueue(opt asynq.RedisClientOpt, concurrency int, sender EmailSender, logger *zap.Logger) *AsynqEmailQueue {
	if concurrency <= 0 {
		concurrency = 4
	}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailSend, HandleEmailTask(sender, logger))
	return &AsynqEmailQueue{
		client: asynq.NewClient(opt),
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{"default": 1},
		}),
		mux:    mux,
		logger: logger,
	}
}

func (q *AsynqEmailQueue) Enqueue(ctx context.Context, email notification.Email) error {
	task, err := NewEmailTask(email)
	if err != nil {
		return err
	}
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}
	q.logger.Debug("email enqueued", zap.String("task_id", info.ID), zap.String("message_id", email.ID))
	return nil
}

// Start begins processing in the background.
func (q *AsynqEmailQueue) Start() error {
	return q.server.Start(q.mux)
}

func (q *AsynqEmailQueue) Shutdown() {
	q.server.Shutdown()
	_ = q.client.Close()
}

// ErrQueueClosed is returned by Enqueue once Shutdown has started.
var ErrQueueClosed = errors.New("email queue closed")

// LocalEmailQueue is a bounded in-process queue used when Redis is absent.
type LocalEmailQueue struct {
	jobs        chan notification.Email
	sender      EmailSender
	concurrency int
	logger      *zap.Logger
	wg          sync.WaitGroup
	once        sync.Once
	mu          sync.RWMutex
	closed      bool
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewLocalEmailQueue builds a queue with the given worker count and buffer.
func NewLocalEmailQueue(sender EmailSender, concurrency, buffer int, logger *zap.Logger) *LocalEmailQueue {
	if concurrency <= 0 {
		concurrency = 1
	}
	if buffer <= 0 {
		buffer = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalEmailQueue{
		jobs:        make(chan notification.Email, buffer),
		sender:      sender,
		concurrency: concurrency,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Enqueue fails fast when the buffer is full rather than blocking the caller.
func (q *LocalEmailQueue) Enqueue(ctx context.Context, email notification.Email) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("%w, dropping %s", ErrQueueClosed, email.ID)
	}
	select {
	case q.jobs <- email:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("email queue full, dropping %s", email.ID)
	}
}

func (q *LocalEmailQueue) Start() error {
	for i := 0; i < q.concurrency; i++ {
		q.wg.Add(1)
		go q.run()
	}
	return nil
}

func (q *LocalEmailQueue) run() {
	defer q.wg.Done()
	for email := range q.jobs {
		if err := q.sender.Send(q.ctx, email); err != nil {
			q.logger.Error("email delivery failed",
				zap.String("message_id", email.ID),
				zap.String("category", string(email.Category)),
				zap.Error(err))
		}
	}
}

// Shutdown drains queued emails, then cancels in-flight retries.
func (q *LocalEmailQueue) Shutdown() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
		q.wg.Wait()
		q.cancel()
	})
}

package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/observability"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the production Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy is exponential: attempt n+1 waits Initial * 2^(n-1) after attempt n fails.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
}

// DefaultRetryPolicy makes three attempts starting at one second.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Initial: time.Second}

// Backoff returns the delay after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.Initial << (attempt - 1)
}

// Dispatcher sends emails through a Transport with retry and records every attempt.
type Dispatcher struct {
	transport Transport
	policy    RetryPolicy
	sleep     Sleeper
	log       *EmailLog
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSleeper replaces the wait between attempts.
func WithSleeper(s Sleeper) DispatcherOption {
	return func(d *Dispatcher) { d.sleep = s }
}

// WithMetrics records send outcomes.
func WithMetrics(m *observability.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher builds a dispatcher. A non-positive MaxAttempts falls back to the default policy.
func NewDispatcher(transport Transport, policy RetryPolicy, log *EmailLog, logger *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if policy.Initial <= 0 {
		policy.Initial = DefaultRetryPolicy.Initial
	}
	if log == nil {
		log = NewEmailLog(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		transport: transport,
		policy:    policy,
		sleep:     ContextSleep,
		log:       log,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Log exposes the attempt history.
func (d *Dispatcher) Log() *EmailLog {
	return d.log
}

// Send delivers email, retrying failures. The last error is returned once attempts run out.
func (d *Dispatcher) Send(ctx context.Context, email Email) error {
	if email.ID == "" {
		email.ID = uuid.NewString()
	}

	var lastErr error
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		lastErr = d.transport.Send(ctx, email)
		d.record(email, attempt, lastErr)
		if lastErr == nil {
			return nil
		}

		d.logger.Warn("email attempt failed",
			zap.String("message_id", email.ID),
			zap.String("to", email.To),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		if attempt == d.policy.MaxAttempts {
			break
		}
		if err := d.sleep(ctx, d.policy.Backoff(attempt)); err != nil {
			return fmt.Errorf("send email %s: %w", email.ID, err)
		}
	}
	return fmt.Errorf("send email %s after %d attempts: %w", email.ID, d.policy.MaxAttempts, lastErr)
}

func (d *Dispatcher) record(email Email, attempt int, err error) {
	rec := domain.EmailRecord{
		MessageID: email.ID,
		Timestamp: d.now().UTC(),
		Recipient: email.To,
		Category:  email.Category,
		Subject:   email.Subject,
		Status:    StatusSent,
		Attempts:  attempt,
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
	}
	d.log.Append(rec)
	d.metrics.RecordEmail(string(email.Category), rec.Status)
}

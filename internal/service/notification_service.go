package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/events"
	"github.com/spec-kit/consulting-service/internal/notification"
)

// EmailEnqueuer hands emails to the delivery queue.
type EmailEnqueuer interface {
	Enqueue(ctx context.Context, email notification.Email) error
}

// NotificationService turns domain events into queued emails.
// Enqueue failures are logged and never reach the publisher.
type NotificationService struct {
	composer *notification.Composer
	queue    EmailEnqueuer
	logger   *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(composer *notification.Composer, queue EmailEnqueuer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{composer: composer, queue: queue, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventOrderPlaced, n.handleOrderPlaced)
	dispatcher.Subscribe(events.EventOrderStatusChanged, n.handleStatusChanged)
	dispatcher.Subscribe(events.EventOrderCancelled, n.handleStatusChanged)
	dispatcher.Subscribe(events.EventComplaintSubmitted, n.handleComplaintSubmitted)
	dispatcher.Subscribe(events.EventComplaintStatusChanged, n.handleComplaintStatusChanged)
}

func (n *NotificationService) handleOrderPlaced(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OrderPlacedPayload)
	if !ok || payload.Order == nil {
		return nil
	}
	n.enqueue(ctx, event, func() (notification.Email, error) {
		return n.composer.OrderPlaced(payload.Order)
	})
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OrderStatusChangedPayload)
	if !ok || payload.Order == nil {
		return nil
	}
	n.enqueue(ctx, event, func() (notification.Email, error) {
		return n.composer.OrderStatusChanged(payload.Order, payload.OldStatus, payload.Note)
	})
	if n.composer.AdminEmail() != "" {
		n.enqueue(ctx, event, func() (notification.Email, error) {
			return n.composer.AdminAlert(payload.Order, payload.OldStatus, payload.Note)
		})
	}
	return nil
}

func (n *NotificationService) handleComplaintSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintPayload)
	if !ok || payload.Complaint == nil || n.composer.AdminEmail() == "" {
		return nil
	}
	n.enqueue(ctx, event, func() (notification.Email, error) {
		return n.composer.ComplaintSubmitted(payload.Complaint)
	})
	return nil
}

func (n *NotificationService) handleComplaintStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintPayload)
	if !ok || payload.Complaint == nil {
		return nil
	}
	n.enqueue(ctx, event, func() (notification.Email, error) {
		return n.composer.ComplaintUpdated(payload.Complaint, payload.Recipient)
	})
	return nil
}

// NotifyPasswordReset queues the reset link email.
func (n *NotificationService) NotifyPasswordReset(ctx context.Context, user *domain.User, token string, ttl time.Duration) error {
	email, err := n.composer.PasswordReset(user, token, ttl)
	if err != nil {
		return err
	}
	return n.queue.Enqueue(ctx, email)
}

func (n *NotificationService) enqueue(ctx context.Context, event events.Event, build func() (notification.Email, error)) {
	email, err := build()
	if err != nil {
		n.logger.Error("render email failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return
	}
	if email.To == "" {
		n.logger.Debug("skip email without recipient", zap.String("event_type", string(event.Type)))
		return
	}
	if err := n.queue.Enqueue(ctx, email); err != nil {
		n.logger.Warn("enqueue email failed",
			zap.String("event_type", string(event.Type)),
			zap.String("order_id", event.OrderID),
			zap.String("category", string(email.Category)),
			zap.Error(err))
	}
}

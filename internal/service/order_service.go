package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/events"
	"github.com/spec-kit/consulting-service/internal/observability"
	"github.com/spec-kit/consulting-service/internal/repository"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

const maxNoteLength = 1000

// OrderService applies status transitions and serves order reads.
type OrderService struct {
	orders     repository.OrderRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	OrderRepo  repository.OrderRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// OrderListFilter describes listing filters.
type OrderListFilter struct {
	UserID      *string
	ServiceID   *string
	Statuses    []domain.OrderStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	s := &OrderService{
		orders:     deps.OrderRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// UpdateStatus moves an order to rawStatus and appends a timeline entry.
// Notifications are published afterwards and never fail the call.
func (s *OrderService) UpdateStatus(ctx context.Context, actor domain.Actor, orderID, rawStatus, note string) (*domain.Order, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("only staff can change order status")
	}
	next, err := domain.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"status": rawStatus})
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order")
	}
	return s.transition(ctx, actor, order, next, note)
}

// Cancel cancels an order. Clients may cancel their own order until work starts.
func (s *OrderService) Cancel(ctx context.Context, actor domain.Actor, orderID, reason string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order")
	}
	if !actor.IsStaff() {
		if order.UserID != actor.ID {
			return nil, apperrors.NewForbidden("access denied")
		}
		if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusConfirmed {
			return nil, apperrors.NewInvalidTransition(string(order.Status), string(domain.OrderStatusCancelled))
		}
	}
	if strings.TrimSpace(reason) == "" {
		reason = "Order cancelled"
	}
	return s.transition(ctx, actor, order, domain.OrderStatusCancelled, reason)
}

func (s *OrderService) transition(ctx context.Context, actor domain.Actor, order *domain.Order, next domain.OrderStatus, note string) (*domain.Order, error) {
	if !order.Status.CanTransitionTo(next) {
		return nil, apperrors.NewInvalidTransition(string(order.Status), string(next))
	}
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLength {
		return nil, apperrors.NewValidationError("note too long", map[string]any{"max": maxNoteLength})
	}
	if note == "" {
		note = fmt.Sprintf("Status updated to %s", next)
	}

	event := domain.TimelineEvent{
		Status:    next,
		Message:   note,
		Timestamp: s.now().UTC(),
		UpdatedBy: actor.ID,
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, order.Version, event); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("order was modified concurrently, reload and retry", map[string]any{"order_id": order.ID})
		}
		return nil, notFoundOr(err, "order")
	}

	updated, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordStatusChange(string(next))
	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(next)),
		zap.String("actor_id", actor.ID))

	eventType := events.EventOrderStatusChanged
	if next == domain.OrderStatusCancelled {
		eventType = events.EventOrderCancelled
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    eventType,
		OrderID: order.ID,
		Actor:   actor,
		Payload: events.OrderStatusChangedPayload{
			Order:     updated,
			OldStatus: order.Status,
			NewStatus: next,
			Note:      note,
		},
	})
	return updated, nil
}

// Get returns an order visible to the actor.
func (s *OrderService) Get(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order")
	}
	if !canAccessOrder(actor, order) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return order, nil
}

// Timeline returns the ordered status history of an order.
func (s *OrderService) Timeline(ctx context.Context, actor domain.Actor, orderID string) ([]domain.TimelineEvent, error) {
	order, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return order.Timeline, nil
}

// ListForClient returns the actor's own orders.
func (s *OrderService) ListForClient(ctx context.Context, actor domain.Actor, filter OrderListFilter) ([]domain.Order, error) {
	filter.UserID = &actor.ID
	return s.list(ctx, filter)
}

// ListForStaff returns all orders matching the filter.
func (s *OrderService) ListForStaff(ctx context.Context, actor domain.Actor, filter OrderListFilter) ([]domain.Order, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff only")
	}
	return s.list(ctx, filter)
}

func (s *OrderService) list(ctx context.Context, filter OrderListFilter) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx, repository.OrderFilter{
		UserID:      filter.UserID,
		ServiceID:   filter.ServiceID,
		Statuses:    filter.Statuses,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

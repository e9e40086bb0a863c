package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/events"
	"github.com/spec-kit/consulting-service/internal/repository"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

const (
	maxMessageLength = 4000
	previewLength    = 140
	defaultPageSize  = 50
	maxPageSize      = 500
)

// ChatService manages per-order conversations.
type ChatService struct {
	orders     repository.OrderRepository
	messages   repository.MessageRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ChatDependencies bundles collaborators for the chat service.
type ChatDependencies struct {
	OrderRepo   repository.OrderRepository
	MessageRepo repository.MessageRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	s := &ChatService{
		orders:     deps.OrderRepo,
		messages:   deps.MessageRepo,
		dispatcher: deps.Dispatcher,
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

// RegisterHandlers appends a system message to the chat on every status change.
func (s *ChatService) RegisterHandlers(dispatcher events.Dispatcher) {
	handler := func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.OrderStatusChangedPayload)
		if !ok {
			return nil
		}
		text := fmt.Sprintf("Order status changed from %s to %s", payload.OldStatus, payload.NewStatus)
		if payload.Note != "" {
			text += ": " + payload.Note
		}
		_, err := s.PostSystemMessage(ctx, event.OrderID, text)
		return err
	}
	dispatcher.Subscribe(events.EventOrderStatusChanged, handler)
	dispatcher.Subscribe(events.EventOrderCancelled, handler)
}

// Send appends a message from the actor to the order's chat.
func (s *ChatService) Send(ctx context.Context, actor domain.Actor, orderID, text string) (*domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("message text is required", nil)
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, apperrors.NewValidationError("message too long", map[string]any{"max": maxMessageLength})
	}
	if _, err := s.authorize(ctx, actor, orderID); err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		Text:       text,
		SenderID:   actor.ID,
		SenderName: actor.Name,
		SenderRole: domain.SenderRoleFor(actor.Role),
		Timestamp:  s.now().UTC(),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, apperrors.NewDependencyError("chat store", err)
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventOrderMessageAdded,
		OrderID: orderID,
		Actor:   actor,
		Payload: events.OrderMessageAddedPayload{
			MessageID:   msg.ID,
			Seq:         msg.Seq,
			SenderRole:  msg.SenderRole,
			BodyPreview: preview(text),
		},
	})
	return msg, nil
}

// PostSystemMessage appends an automated message to the order's chat.
func (s *ChatService) PostSystemMessage(ctx context.Context, orderID, text string) (*domain.ChatMessage, error) {
	msg := &domain.ChatMessage{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		Text:       text,
		SenderID:   domain.SystemActor.ID,
		SenderName: domain.SystemActor.Name,
		SenderRole: domain.SenderRoleSystem,
		Timestamp:  s.now().UTC(),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		s.logger.Warn("append system message failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return msg, nil
}

// List returns messages after afterSeq in ascending order. Without afterSeq it
// returns the newest page, so a message just sent is always the last element.
func (s *ChatService) List(ctx context.Context, actor domain.Actor, orderID string, afterSeq int64, limit int) ([]domain.ChatMessage, error) {
	if _, err := s.authorize(ctx, actor, orderID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if afterSeq < 0 {
		afterSeq = 0
	}
	msgs, err := s.messages.List(ctx, orderID, afterSeq, limit)
	if err != nil {
		return nil, apperrors.NewDependencyError("chat store", err)
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	return msgs, nil
}

// MarkRead marks the other party's messages as read and returns how many changed.
func (s *ChatService) MarkRead(ctx context.Context, actor domain.Actor, orderID string) (int64, error) {
	if _, err := s.authorize(ctx, actor, orderID); err != nil {
		return 0, err
	}
	n, err := s.messages.MarkRead(ctx, orderID, actor.ID)
	if err != nil {
		return 0, apperrors.NewDependencyError("chat store", err)
	}
	return n, nil
}

func (s *ChatService) authorize(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order")
	}
	if !canAccessOrder(actor, order) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return order, nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength]) + "..."
}

package dto

import (
	"time"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// OrderResponse is the full order view.
type OrderResponse struct {
	ID               string                  `json:"id"`
	UserID           string                  `json:"user_id"`
	UserName         string                  `json:"user_name"`
	UserEmail        string                  `json:"user_email"`
	ServiceID        string                  `json:"service_id"`
	ServiceName      string                  `json:"service_name"`
	Amount           int64                   `json:"amount"`
	Currency         string                  `json:"currency"`
	Status           domain.OrderStatus      `json:"status"`
	PaymentStatus    domain.PaymentStatus    `json:"payment_status"`
	Gateway          string                  `json:"gateway"`
	GatewayOrderID   string                  `json:"gateway_order_id"`
	GatewayPaymentID string                  `json:"gateway_payment_id"`
	Timeline         []TimelineEventResponse `json:"timeline"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// TimelineEventResponse is one status change.
type TimelineEventResponse struct {
	Status    domain.OrderStatus `json:"status"`
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
	UpdatedBy string             `json:"updated_by"`
}

// StatusUpdateRequest payload for staff.
type StatusUpdateRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// CancelRequest payload.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// MessageRequest payload for chat.
type MessageRequest struct {
	Text string `json:"text"`
}

// MessageResponse is one chat message.
type MessageResponse struct {
	ID         string            `json:"id"`
	OrderID    string            `json:"order_id"`
	Seq        int64             `json:"seq"`
	Text       string            `json:"text"`
	SenderID   string            `json:"sender_id"`
	SenderName string            `json:"sender_name"`
	SenderRole domain.SenderRole `json:"sender_role"`
	Timestamp  time.Time         `json:"timestamp"`
	IsRead     bool              `json:"is_read"`
}

// NewOrderResponse maps a domain order.
func NewOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		UserName:         o.UserName,
		UserEmail:        o.UserEmail,
		ServiceID:        o.ServiceID,
		ServiceName:      o.ServiceName,
		Amount:           o.Amount,
		Currency:         o.Currency,
		Status:           o.Status,
		PaymentStatus:    o.PaymentStatus,
		Gateway:          o.Gateway,
		GatewayOrderID:   o.GatewayOrderID,
		GatewayPaymentID: o.GatewayPaymentID,
		Timeline:         NewTimelineResponse(o.Timeline),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// NewTimelineResponse maps timeline entries.
func NewTimelineResponse(events []domain.TimelineEvent) []TimelineEventResponse {
	out := make([]TimelineEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, TimelineEventResponse{
			Status:    e.Status,
			Message:   e.Message,
			Timestamp: e.Timestamp,
			UpdatedBy: e.UpdatedBy,
		})
	}
	return out
}

// NewMessageResponse maps a chat message.
func NewMessageResponse(m *domain.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		OrderID:    m.OrderID,
		Seq:        m.Seq,
		Text:       m.Text,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		SenderRole: m.SenderRole,
		Timestamp:  m.Timestamp,
		IsRead:     m.IsRead,
	}
}

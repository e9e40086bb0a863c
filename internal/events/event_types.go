package events

import (
	"time"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderPlaced            EventType = "order_placed"
	EventOrderStatusChanged     EventType = "order_status_changed"
	EventOrderCancelled         EventType = "order_cancelled"
	EventOrderMessageAdded      EventType = "order_message_added"
	EventComplaintSubmitted     EventType = "complaint_submitted"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	OrderID   string       `json:"order_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   any          `json:"payload"`
}

// OrderPlacedPayload carries the freshly persisted order.
type OrderPlacedPayload struct {
	Order *domain.Order `json:"order"`
}

// OrderStatusChangedPayload is used for both status changes and cancellations.
type OrderStatusChangedPayload struct {
	Order     *domain.Order      `json:"order"`
	OldStatus domain.OrderStatus `json:"old_status"`
	NewStatus domain.OrderStatus `json:"new_status"`
	Note      string             `json:"note,omitempty"`
}

// OrderMessageAddedPayload payload.
type OrderMessageAddedPayload struct {
	MessageID   string            `json:"message_id"`
	Seq         int64             `json:"seq"`
	SenderRole  domain.SenderRole `json:"sender_role"`
	BodyPreview string            `json:"body_preview"`
}

// ComplaintPayload carries the complaint after the change.
type ComplaintPayload struct {
	Complaint *domain.Complaint      `json:"complaint"`
	OldStatus domain.ComplaintStatus `json:"old_status,omitempty"`
	// Recipient is the client's address, resolved by the publisher.
	Recipient string `json:"recipient,omitempty"`
}

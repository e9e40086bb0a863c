package domain

import "time"

// TimelineEvent is an immutable status-change entry on an order.
type TimelineEvent struct {
	Status    OrderStatus
	Message   string
	Timestamp time.Time
	UpdatedBy string
}

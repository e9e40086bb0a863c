package dto

import (
	"time"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// AdminDashboardResponse view.
type AdminDashboardResponse struct {
	OrdersByStatus    map[domain.OrderStatus]int `json:"orders_by_status"`
	TotalOrders       int                        `json:"total_orders"`
	Revenue           map[string]int64           `json:"revenue"`
	OpenComplaints    int                        `json:"open_complaints"`
	AverageRating     float64                    `json:"average_rating"`
	FeedbackCount     int                        `json:"feedback_count"`
	UnreadFromClients int64                      `json:"unread_from_clients"`
}

// StaffDashboardResponse view.
type StaffDashboardResponse struct {
	Confirmed         int   `json:"confirmed"`
	Processing        int   `json:"processing"`
	UnreadFromClients int64 `json:"unread_from_clients"`
}

// EmailRecordResponse is one entry of the email log.
type EmailRecordResponse struct {
	MessageID string               `json:"message_id"`
	Timestamp time.Time            `json:"timestamp"`
	Recipient string               `json:"recipient"`
	Category  domain.EmailCategory `json:"category"`
	Subject   string               `json:"subject"`
	Status    string               `json:"status"`
	Attempts  int                  `json:"attempts"`
	Error     string               `json:"error,omitempty"`
}

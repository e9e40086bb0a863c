package dto

import (
	"time"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// FeedbackRequest payload.
type FeedbackRequest struct {
	OrderID *string `json:"order_id"`
	Rating  int     `json:"rating"`
	Comment string  `json:"comment"`
}

// FeedbackResponse view.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	OrderID   *string   `json:"order_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFeedbackResponse maps feedback.
func NewFeedbackResponse(f *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:        f.ID,
		UserID:    f.UserID,
		OrderID:   f.OrderID,
		Rating:    f.Rating,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
	}
}

package domain

import "time"

// Feedback is a rating left by a client.
type Feedback struct {
	ID        string
	UserID    string
	OrderID   *string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

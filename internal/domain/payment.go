package domain

import "time"

// PaymentAttempt records one checkout started against a gateway.
type PaymentAttempt struct {
	ID               string
	UserID           string
	ServiceID        string
	Gateway          string
	GatewayOrderID   string
	GatewayPaymentID string
	Amount           int64
	Currency         string
	Status           PaymentStatus
	FailureReason    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CheckoutSession is the short-lived state between gateway order creation and confirmation.
type CheckoutSession struct {
	AttemptID      string    `json:"attempt_id"`
	UserID         string    `json:"user_id"`
	ServiceID      string    `json:"service_id"`
	ServiceName    string    `json:"service_name"`
	Gateway        string    `json:"gateway"`
	GatewayOrderID string    `json:"gateway_order_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Receipt        string    `json:"receipt"`
	CreatedAt      time.Time `json:"created_at"`
}

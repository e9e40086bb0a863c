package dto

import "time"

// CheckoutRequest starts a checkout.
type CheckoutRequest struct {
	ServiceID string `json:"service_id"`
	Gateway   string `json:"gateway"`
}

// CheckoutResponse carries what the hosted checkout needs.
type CheckoutResponse struct {
	Gateway        string    `json:"gateway"`
	GatewayOrderID string    `json:"gateway_order_id"`
	KeyID          string    `json:"key_id"`
	ClientSecret   string    `json:"client_secret,omitempty"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	ServiceName    string    `json:"service_name"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// ConfirmPaymentRequest is the hosted checkout callback. Razorpay field names
// are accepted as sent by its checkout widget; the generic names serve other gateways.
type ConfirmPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	GatewayOrderID    string `json:"gateway_order_id"`
	PaymentID         string `json:"payment_id"`
	Signature         string `json:"signature"`
}

// OrderID returns the gateway order id from whichever field was sent.
func (r ConfirmPaymentRequest) OrderID() string {
	return firstNonEmpty(r.RazorpayOrderID, r.GatewayOrderID)
}

// Payment returns the gateway payment id from whichever field was sent.
func (r ConfirmPaymentRequest) Payment() string {
	return firstNonEmpty(r.RazorpayPaymentID, r.PaymentID)
}

// Sig returns the callback signature from whichever field was sent.
func (r ConfirmPaymentRequest) Sig() string {
	return firstNonEmpty(r.RazorpaySignature, r.Signature)
}

// FailPaymentRequest records an abandoned or failed checkout.
type FailPaymentRequest struct {
	GatewayOrderID string `json:"gateway_order_id"`
	Reason         string `json:"reason"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

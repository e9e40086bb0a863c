package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// GatewayRazorpay is the registry name for Razorpay.
const GatewayRazorpay = "razorpay"

type razorpayOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay creates orders with the Razorpay Orders API and verifies checkout signatures.
type Razorpay struct {
	keyID  string
	secret string
	orders razorpayOrders
}

// NewRazorpay builds the gateway from API credentials.
func NewRazorpay(keyID, secret string) *Razorpay {
	client := razorpay.NewClient(keyID, secret)
	return &Razorpay{keyID: keyID, secret: secret, orders: client.Order}
}

func (r *Razorpay) Name() string      { return GatewayRazorpay }
func (r *Razorpay) PublicKey() string { return r.keyID }

// CreateOrder calls the Orders API. The SDK has no context support, so ctx is only checked up front.
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	body, err := r.orders.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay create order: response without id")
	}
	return &GatewayOrder{ID: id, Amount: req.Amount, Currency: req.Currency}, nil
}

// VerifyPayment checks the HMAC signature over order id and payment id.
func (r *Razorpay) VerifyPayment(_ context.Context, c Confirmation) error {
	if c.Signature == "" {
		return fmt.Errorf("%w: missing signature", ErrVerificationFailed)
	}
	ok := utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   c.GatewayOrderID,
		"razorpay_payment_id": c.PaymentID,
	}, c.Signature, r.secret)
	if !ok {
		return fmt.Errorf("%w: signature mismatch", ErrVerificationFailed)
	}
	return nil
}

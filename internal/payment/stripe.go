package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// GatewayStripe is the registry name for Stripe.
const GatewayStripe = "stripe"

type stripeIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Stripe uses PaymentIntents; the intent id doubles as gateway order and payment id.
type Stripe struct {
	publishable string
	intents     stripeIntents
}

// NewStripe builds the gateway with its own API client.
func NewStripe(secretKey, publishableKey string) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{publishable: publishableKey, intents: sc.PaymentIntents}
}

func (s *Stripe) Name() string      { return GatewayStripe }
func (s *Stripe) PublicKey() string { return s.publishable }

func (s *Stripe) CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("receipt", req.Receipt)
	for k, v := range req.Notes {
		params.AddMetadata(k, v)
	}
	pi, err := s.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create intent: %w", err)
	}
	return &GatewayOrder{ID: pi.ID, Amount: pi.Amount, Currency: req.Currency, ClientSecret: pi.ClientSecret}, nil
}

// VerifyPayment re-reads the intent and requires it to have succeeded for the expected amount.
func (s *Stripe) VerifyPayment(ctx context.Context, c Confirmation) error {
	if c.PaymentID != c.GatewayOrderID {
		return fmt.Errorf("%w: payment does not belong to order", ErrVerificationFailed)
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.intents.Get(c.GatewayOrderID, params)
	if err != nil {
		return fmt.Errorf("stripe get intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%w: intent status %s", ErrVerificationFailed, pi.Status)
	}
	if c.ExpectedAmount > 0 && pi.Amount != c.ExpectedAmount {
		return fmt.Errorf("%w: amount mismatch", ErrVerificationFailed)
	}
	return nil
}

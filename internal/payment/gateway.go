package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrVerificationFailed is returned when a gateway rejects a payment confirmation.
var ErrVerificationFailed = errors.New("payment verification failed")

// ErrUnknownGateway is returned by Registry.Get for unconfigured gateways.
var ErrUnknownGateway = errors.New("unknown payment gateway")

// OrderRequest describes the gateway-side order to create.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// GatewayOrder is what the client needs to open the hosted checkout.
type GatewayOrder struct {
	ID           string
	Amount       int64
	Currency     string
	ClientSecret string
}

// Confirmation carries the identifiers returned by the hosted checkout.
type Confirmation struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
	// ExpectedAmount guards against paying less than the session's amount.
	ExpectedAmount int64
}

// Gateway abstracts a hosted-checkout payment provider.
type Gateway interface {
	Name() string
	PublicKey() string
	CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error)
	VerifyPayment(ctx context.Context, c Confirmation) error
}

// Registry resolves gateways by name.
type Registry struct {
	gateways map[string]Gateway
	fallback string
}

// NewRegistry indexes gateways; defaultName is used when callers pass an empty name.
func NewRegistry(defaultName string, gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways)), fallback: strings.ToLower(defaultName)}
	for _, g := range gateways {
		if g != nil {
			r.gateways[g.Name()] = g
		}
	}
	return r
}

// Get returns the named gateway.
func (r *Registry) Get(name string) (Gateway, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = r.fallback
	}
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, name)
	}
	return g, nil
}

// Names lists configured gateways.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	return names
}

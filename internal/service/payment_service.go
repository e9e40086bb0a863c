package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/events"
	"github.com/spec-kit/consulting-service/internal/payment"
	"github.com/spec-kit/consulting-service/internal/repository"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

const paymentLockTTL = 24 * time.Hour

// PaymentService bridges the hosted checkout and local order creation.
type PaymentService struct {
	gateways   *payment.Registry
	catalog    repository.CatalogRepository
	attempts   repository.PaymentAttemptRepository
	orders     repository.OrderRepository
	sessions   repository.CheckoutStore
	locks      repository.IdempotencyGuard
	dispatcher events.Dispatcher
	logger     *zap.Logger
	currency   string
	sessionTTL time.Duration
	now        func() time.Time
}

// PaymentDependencies bundles collaborators for the payment service.
type PaymentDependencies struct {
	Gateways    *payment.Registry
	CatalogRepo repository.CatalogRepository
	AttemptRepo repository.PaymentAttemptRepository
	OrderRepo   repository.OrderRepository
	Sessions    repository.CheckoutStore
	Locks       repository.IdempotencyGuard
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Currency    string
	SessionTTL  time.Duration
	Clock       func() time.Time
}

// CheckoutInput starts a checkout for one service.
type CheckoutInput struct {
	ServiceID string `validate:"required"`
	Gateway   string
}

// CheckoutResult is what the client needs to open the hosted checkout.
type CheckoutResult struct {
	Gateway        string
	GatewayOrderID string
	PublicKey      string
	ClientSecret   string
	Amount         int64
	Currency       string
	ServiceName    string
	ExpiresAt      time.Time
}

// ConfirmInput carries the identifiers returned by the hosted checkout.
type ConfirmInput struct {
	GatewayOrderID string `validate:"required"`
	PaymentID      string `validate:"required"`
	Signature      string
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	s := &PaymentService{
		gateways:   deps.Gateways,
		catalog:    deps.CatalogRepo,
		attempts:   deps.AttemptRepo,
		orders:     deps.OrderRepo,
		sessions:   deps.Sessions,
		locks:      deps.Locks,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		currency:   strings.ToUpper(deps.Currency),
		sessionTTL: deps.SessionTTL,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = 30 * time.Minute
	}
	return s
}

// CreateCheckout creates a gateway order for the service's catalog price.
func (s *PaymentService) CreateCheckout(ctx context.Context, actor domain.Actor, input CheckoutInput) (*CheckoutResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	gw, err := s.gateways.Get(input.Gateway)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"gateway": input.Gateway})
	}
	svc, err := s.catalog.GetService(ctx, input.ServiceID)
	if err != nil {
		return nil, notFoundOr(err, "service")
	}
	if !svc.Active {
		return nil, apperrors.NewValidationError("service is not available", map[string]any{"service_id": svc.ID})
	}
	currency := svc.Currency
	if currency == "" {
		currency = s.currency
	}

	receipt := uuid.NewString()
	gwOrder, err := gw.CreateOrder(ctx, payment.OrderRequest{
		Amount:   svc.Price,
		Currency: currency,
		Receipt:  receipt,
		Notes:    map[string]string{"service_id": svc.ID, "user_id": actor.ID},
	})
	if err != nil {
		return nil, apperrors.NewDependencyError(gw.Name(), err)
	}

	attempt := &domain.PaymentAttempt{
		UserID:         actor.ID,
		ServiceID:      svc.ID,
		Gateway:        gw.Name(),
		GatewayOrderID: gwOrder.ID,
		Amount:         svc.Price,
		Currency:       currency,
		Status:         domain.PaymentStatusPending,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &domain.CheckoutSession{
		AttemptID:      attempt.ID,
		UserID:         actor.ID,
		ServiceID:      svc.ID,
		ServiceName:    svc.Name,
		Gateway:        gw.Name(),
		GatewayOrderID: gwOrder.ID,
		Amount:         svc.Price,
		Currency:       currency,
		Receipt:        receipt,
		CreatedAt:      now,
	}
	if err := s.sessions.Save(ctx, session, s.sessionTTL); err != nil {
		// the attempt row still lets confirmation rebuild the session
		s.logger.Warn("save checkout session failed", zap.String("gateway_order_id", gwOrder.ID), zap.Error(err))
	}

	return &CheckoutResult{
		Gateway:        gw.Name(),
		GatewayOrderID: gwOrder.ID,
		PublicKey:      gw.PublicKey(),
		ClientSecret:   gwOrder.ClientSecret,
		Amount:         svc.Price,
		Currency:       currency,
		ServiceName:    svc.Name,
		ExpiresAt:      now.Add(s.sessionTTL),
	}, nil
}

// ConfirmCheckout verifies the gateway callback and persists the paid order.
// Nothing is written unless both the gateway order id and payment id are present and verified.
func (s *PaymentService) ConfirmCheckout(ctx context.Context, actor domain.Actor, input ConfirmInput) (*domain.Order, error) {
	input.GatewayOrderID = strings.TrimSpace(input.GatewayOrderID)
	input.PaymentID = strings.TrimSpace(input.PaymentID)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	session, err := s.loadSession(ctx, input.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if session.UserID != actor.ID {
		return nil, apperrors.NewForbidden("checkout belongs to another user")
	}

	gw, err := s.gateways.Get(session.Gateway)
	if err != nil {
		return nil, err
	}
	if err := gw.VerifyPayment(ctx, payment.Confirmation{
		GatewayOrderID: input.GatewayOrderID,
		PaymentID:      input.PaymentID,
		Signature:      input.Signature,
		ExpectedAmount: session.Amount,
	}); err != nil {
		if errors.Is(err, payment.ErrVerificationFailed) {
			return nil, apperrors.NewDomainError("PAYMENT_VERIFICATION_FAILED", "payment could not be verified", http.StatusBadRequest, nil)
		}
		return nil, apperrors.NewDependencyError(gw.Name(), err)
	}

	acquired, err := s.locks.Acquire(ctx, input.PaymentID, paymentLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return s.replayedPayment(ctx, actor, input.PaymentID)
	}

	now := s.now().UTC()
	order := &domain.Order{
		UserID:           actor.ID,
		UserName:         actor.Name,
		UserEmail:        actor.Email,
		ServiceID:        session.ServiceID,
		ServiceName:      session.ServiceName,
		Amount:           session.Amount,
		Currency:         session.Currency,
		Status:           domain.OrderStatusConfirmed,
		PaymentStatus:    domain.PaymentStatusCompleted,
		Gateway:          session.Gateway,
		GatewayOrderID:   session.GatewayOrderID,
		GatewayPaymentID: input.PaymentID,
		Timeline: []domain.TimelineEvent{
			{Status: domain.OrderStatusPending, Message: "Order placed", Timestamp: now, UpdatedBy: actor.ID},
			{Status: domain.OrderStatusConfirmed, Message: "Payment received", Timestamp: now, UpdatedBy: domain.SystemActor.ID},
		},
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if isUniqueViolation(err) {
			// The lock expired but the order already exists for this payment.
			return s.replayedPayment(ctx, actor, input.PaymentID)
		}
		if relErr := s.locks.Release(ctx, input.PaymentID); relErr != nil {
			s.logger.Warn("release payment lock failed", zap.String("payment_id", input.PaymentID), zap.Error(relErr))
		}
		return nil, err
	}

	if session.AttemptID != "" {
		if err := s.attempts.MarkCompleted(ctx, session.AttemptID, input.PaymentID); err != nil {
			s.logger.Warn("mark payment attempt completed failed", zap.String("attempt_id", session.AttemptID), zap.Error(err))
		}
	}
	if err := s.sessions.Delete(ctx, session.GatewayOrderID); err != nil {
		s.logger.Debug("delete checkout session failed", zap.Error(err))
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("gateway", order.Gateway),
		zap.String("payment_id", order.GatewayPaymentID))
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventOrderPlaced,
		OrderID: order.ID,
		Actor:   actor,
		Payload: events.OrderPlacedPayload{Order: order},
	})
	return order, nil
}

// replayedPayment answers a confirmation for a payment that already produced an order.
func (s *PaymentService) replayedPayment(ctx context.Context, actor domain.Actor, paymentID string) (*domain.Order, error) {
	existing, err := s.orders.GetByGatewayPaymentID(ctx, paymentID)
	if err == nil && existing.UserID == actor.ID {
		return existing, nil
	}
	return nil, apperrors.NewConflict("payment is already being processed", map[string]any{"payment_id": paymentID})
}

// FailCheckout records a failed or dismissed checkout so the client can start over.
func (s *PaymentService) FailCheckout(ctx context.Context, actor domain.Actor, gatewayOrderID, reason string) error {
	gatewayOrderID = strings.TrimSpace(gatewayOrderID)
	if gatewayOrderID == "" {
		return apperrors.NewValidationError("gateway order id is required", nil)
	}
	attempt, err := s.attempts.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return notFoundOr(err, "checkout")
	}
	if attempt.UserID != actor.ID {
		return apperrors.NewForbidden("checkout belongs to another user")
	}
	if attempt.Status != domain.PaymentStatusPending {
		return apperrors.NewConflict("checkout already finalized", map[string]any{"status": attempt.Status})
	}
	if strings.TrimSpace(reason) == "" {
		reason = "dismissed"
	}
	if err := s.attempts.MarkFailed(ctx, attempt.ID, reason); err != nil {
		return notFoundOr(err, "checkout")
	}
	if err := s.sessions.Delete(ctx, gatewayOrderID); err != nil {
		s.logger.Debug("delete checkout session failed", zap.Error(err))
	}
	s.logger.Info("checkout failed", zap.String("gateway_order_id", gatewayOrderID), zap.String("reason", reason))
	return nil
}

// loadSession prefers the cached session and falls back to the attempt record.
func (s *PaymentService) loadSession(ctx context.Context, gatewayOrderID string) (*domain.CheckoutSession, error) {
	session, err := s.sessions.Get(ctx, gatewayOrderID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repository.ErrSessionNotFound) {
		s.logger.Warn("checkout session lookup failed", zap.Error(err))
	}

	attempt, err := s.attempts.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, notFoundOr(err, "checkout")
	}
	if attempt.Status != domain.PaymentStatusPending {
		return nil, apperrors.NewConflict("checkout already finalized", map[string]any{"status": attempt.Status})
	}
	svc, err := s.catalog.GetService(ctx, attempt.ServiceID)
	if err != nil {
		return nil, notFoundOr(err, "service")
	}
	return &domain.CheckoutSession{
		AttemptID:      attempt.ID,
		UserID:         attempt.UserID,
		ServiceID:      attempt.ServiceID,
		ServiceName:    svc.Name,
		Gateway:        attempt.Gateway,
		GatewayOrderID: attempt.GatewayOrderID,
		Amount:         attempt.Amount,
		Currency:       attempt.Currency,
		CreatedAt:      attempt.CreatedAt,
	}, nil
}

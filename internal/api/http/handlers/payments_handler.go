package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/consulting-service/internal/api/dto"
	"github.com/spec-kit/consulting-service/internal/service"
)

// PaymentsHandler bridges the hosted checkout to order creation.
type PaymentsHandler struct {
	payments *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(payments *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{payments: payments}
}

// Checkout handles POST /payments/checkout.
func (h *PaymentsHandler) Checkout(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CheckoutRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.payments.CreateCheckout(c.UserContext(), actor, service.CheckoutInput{
		ServiceID: req.ServiceID,
		Gateway:   req.Gateway,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CheckoutResponse{
		Gateway:        res.Gateway,
		GatewayOrderID: res.GatewayOrderID,
		KeyID:          res.PublicKey,
		ClientSecret:   res.ClientSecret,
		Amount:         res.Amount,
		Currency:       res.Currency,
		ServiceName:    res.ServiceName,
		ExpiresAt:      res.ExpiresAt,
	}})
}

// Confirm handles POST /payments/confirm with the gateway callback fields.
func (h *PaymentsHandler) Confirm(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ConfirmPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	order, err := h.payments.ConfirmCheckout(c.UserContext(), actor, service.ConfirmInput{
		GatewayOrderID: req.OrderID(),
		PaymentID:      req.Payment(),
		Signature:      req.Sig(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Fail handles POST /payments/fail when the client dismisses or fails checkout.
func (h *PaymentsHandler) Fail(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.FailPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.payments.FailCheckout(c.UserContext(), actor, req.GatewayOrderID, req.Reason); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

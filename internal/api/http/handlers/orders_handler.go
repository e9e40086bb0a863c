package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/consulting-service/internal/api/dto"
	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/service"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

// OrdersHandler serves order reads, cancellation and the order chat.
type OrdersHandler struct {
	orders *service.OrderService
	chat   *service.ChatService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orders *service.OrderService, chat *service.ChatService) *OrdersHandler {
	return &OrdersHandler{orders: orders, chat: chat}
}

// ListOwn handles GET /orders.
func (h *OrdersHandler) ListOwn(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter, err := parseOrderQuery(c)
	if err != nil {
		return err
	}
	orders, err := h.orders.ListForClient(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderList(orders)})
}

// Get handles GET /orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	order, err := h.orders.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Timeline handles GET /orders/:id/timeline.
func (h *OrdersHandler) Timeline(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	timeline, err := h.orders.Timeline(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTimelineResponse(timeline)})
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrdersHandler) Cancel(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CancelRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	order, err := h.orders.Cancel(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// ListMessages handles GET /orders/:id/messages?after_seq=&limit=.
func (h *OrdersHandler) ListMessages(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var afterSeq int64
	if raw := c.Query("after_seq"); raw != "" {
		afterSeq, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || afterSeq < 0 {
			return apperrors.NewValidationError("after_seq must be a non-negative integer", nil)
		}
	}
	msgs, err := h.chat.List(c.UserContext(), actor, c.Params("id"), afterSeq, parseInt(c.Query("limit"), 0))
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, dto.NewMessageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SendMessage handles POST /orders/:id/messages.
func (h *OrdersHandler) SendMessage(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.MessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	msg, err := h.chat.Send(c.UserContext(), actor, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMessageResponse(msg)})
}

// MarkRead handles POST /orders/:id/messages/read.
func (h *OrdersHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	n, err := h.chat.MarkRead(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"marked": n}})
}

func parseOrderQuery(c *fiber.Ctx) (service.OrderListFilter, error) {
	filter := service.OrderListFilter{
		UserID:    optionalString(c.Query("user_id")),
		ServiceID: optionalString(c.Query("service_id")),
	}
	for _, raw := range splitCSV(c.Query("status")) {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			return filter, apperrors.NewValidationError(err.Error(), map[string]any{"status": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	from, err := parseTime(c.Query("created_from"))
	if err != nil {
		return filter, err
	}
	to, err := parseTime(c.Query("created_to"))
	if err != nil {
		return filter, err
	}
	filter.CreatedFrom, filter.CreatedTo = from, to
	filter.Limit, filter.Offset = paging(c)
	return filter, nil
}

func orderList(orders []domain.Order) []dto.OrderResponse {
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, dto.NewOrderResponse(&orders[i]))
	}
	return items
}

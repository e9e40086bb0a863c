package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/consulting-service/internal/api/dto"
	"github.com/spec-kit/consulting-service/internal/service"
)

// StaffOrdersHandler manages the staff work queue.
type StaffOrdersHandler struct {
	orders     *service.OrderService
	dashboards *service.DashboardService
}

// NewStaffOrdersHandler constructs handler.
func NewStaffOrdersHandler(orders *service.OrderService, dashboards *service.DashboardService) *StaffOrdersHandler {
	return &StaffOrdersHandler{orders: orders, dashboards: dashboards}
}

// List handles GET /staff/orders.
func (h *StaffOrdersHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter, err := parseOrderQuery(c)
	if err != nil {
		return err
	}
	orders, err := h.orders.ListForStaff(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderList(orders)})
}

// UpdateStatus handles PATCH /staff/orders/:id/status.
func (h *StaffOrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	order, err := h.orders.UpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Dashboard handles GET /staff/dashboard.
func (h *StaffOrdersHandler) Dashboard(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	d, err := h.dashboards.Staff(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StaffDashboardResponse{
		Confirmed:         d.Confirmed,
		Processing:        d.Processing,
		UnreadFromClients: d.UnreadFromClients,
	}})
}

package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/consulting-service/internal/api/dto"
	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/repository"
	"github.com/spec-kit/consulting-service/internal/service"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

// EmailLogReader exposes recorded send outcomes.
type EmailLogReader interface {
	Records() []domain.EmailRecord
}

// AdminHandler serves the admin dashboard, email log and user management.
type AdminHandler struct {
	dashboards *service.DashboardService
	auth       *service.AuthService
	emailLog   EmailLogReader
}

// NewAdminHandler constructs handler.
func NewAdminHandler(dashboards *service.DashboardService, authService *service.AuthService, emailLog EmailLogReader) *AdminHandler {
	return &AdminHandler{dashboards: dashboards, auth: authService, emailLog: emailLog}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	d, err := h.dashboards.Admin(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AdminDashboardResponse{
		OrdersByStatus:    d.OrdersByStatus,
		TotalOrders:       d.TotalOrders,
		Revenue:           d.Revenue,
		OpenComplaints:    d.OpenComplaints,
		AverageRating:     d.AverageRating,
		FeedbackCount:     d.FeedbackCount,
		UnreadFromClients: d.UnreadFromClients,
	}})
}

// Notifications handles GET /admin/notifications, newest first.
func (h *AdminHandler) Notifications(c *fiber.Ctx) error {
	records := h.emailLog.Records()
	status := strings.ToLower(c.Query("status"))
	out := make([]dto.EmailRecordResponse, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, dto.EmailRecordResponse{
			MessageID: r.MessageID,
			Timestamp: r.Timestamp,
			Recipient: r.Recipient,
			Category:  r.Category,
			Subject:   r.Subject,
			Status:    r.Status,
			Attempts:  r.Attempts,
			Error:     r.Error,
		})
	}
	return c.JSON(fiber.Map{"data": out})
}

// ListUsers handles GET /admin/users?role=&active=&q=.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter := repository.UserFilter{Search: strings.TrimSpace(c.Query("q"))}
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(strings.ToLower(raw))
		if !role.Valid() {
			return apperrors.NewValidationError("unknown role", map[string]any{"role": raw})
		}
		filter.Role = &role
	}
	if raw := c.Query("active"); raw != "" {
		active := c.QueryBool("active")
		filter.Active = &active
	}
	filter.Limit, filter.Offset = paging(c)
	users, err := h.auth.ListUsers(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// SetRole handles PATCH /admin/users/:id/role.
func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.RoleUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.auth.SetRole(c.UserContext(), actor, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// SetActive handles PATCH /admin/users/:id/active.
func (h *AdminHandler) SetActive(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ActiveUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Active == nil {
		return apperrors.NewValidationError("active is required", map[string]any{"field": "active"})
	}
	user, err := h.auth.SetActive(c.UserContext(), actor, c.Params("id"), *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/consulting-service/internal/api/dto"
	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/service"
)

// FeedbackHandler serves client ratings.
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// Submit handles POST /feedback.
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	fb, err := h.feedback.Submit(c.UserContext(), actor, service.FeedbackInput{
		OrderID: req.OrderID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewFeedbackResponse(fb)})
}

// List handles GET /feedback. Staff see every entry, clients their own.
func (h *FeedbackHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	limit, offset := paging(c)
	var items []domain.Feedback
	if actor.IsStaff() {
		items, err = h.feedback.ListAll(c.UserContext(), actor, limit, offset)
	} else {
		items, err = h.feedback.ListOwn(c.UserContext(), actor, limit, offset)
	}
	if err != nil {
		return err
	}
	out := make([]dto.FeedbackResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewFeedbackResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Delete handles DELETE /admin/feedback/:id; the route also requires the confirmation code.
func (h *FeedbackHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.feedback.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

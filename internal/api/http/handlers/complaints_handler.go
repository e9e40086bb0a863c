package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/consulting-service/internal/api/dto"
	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/repository"
	"github.com/spec-kit/consulting-service/internal/service"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

const attachmentField = "attachment"

// ComplaintsHandler serves complaint submission and review.
type ComplaintsHandler struct {
	complaints *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaints *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints}
}

// Submit handles POST /orders/:id/complaints as JSON or multipart with an optional attachment.
func (h *ComplaintsHandler) Submit(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ComplaintRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.ComplaintInput{Type: req.ComplaintType, Description: req.Description}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return apperrors.NewValidationError("invalid multipart payload", nil)
		}
		if files := form.File[attachmentField]; len(files) > 0 {
			fh := files[0]
			file, err := fh.Open()
			if err != nil {
				return apperrors.NewValidationError("attachment unreadable", nil)
			}
			defer file.Close()
			input.Attachment = &service.AttachmentUpload{
				FileName: fh.Filename,
				MimeType: fh.Header.Get(fiber.HeaderContentType),
				Size:     fh.Size,
				Body:     file,
			}
		}
	}

	complaint, err := h.complaints.Submit(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint, "")})
}

// Get handles GET /complaints/:id with a short-lived attachment link.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	view, err := h.complaints.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(&view.Complaint, view.AttachmentURL)})
}

// List handles GET /complaints?status=&order_id=.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter := repository.ComplaintFilter{OrderID: optionalString(c.Query("order_id"))}
	for _, raw := range splitCSV(c.Query("status")) {
		status, err := domain.ParseComplaintStatus(raw)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), map[string]any{"status": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	filter.Limit, filter.Offset = paging(c)
	items, err := h.complaints.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	out := make([]dto.ComplaintResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewComplaintResponse(&items[i], ""))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Review handles PATCH /staff/complaints/:id.
func (h *ComplaintsHandler) Review(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ComplaintReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	complaint, err := h.complaints.Review(c.UserContext(), actor, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint, "")})
}

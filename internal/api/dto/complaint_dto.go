package dto

import (
	"time"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// ComplaintRequest is the JSON form of a complaint without attachment.
// Multipart submissions use the same field names.
type ComplaintRequest struct {
	ComplaintType string `json:"complaint_type" form:"complaint_type"`
	Description   string `json:"description" form:"description"`
}

// ComplaintReviewRequest payload for staff.
type ComplaintReviewRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url,omitempty"`
}

// ComplaintResponse view.
type ComplaintResponse struct {
	ID             string                 `json:"id"`
	OrderID        string                 `json:"order_id"`
	UserID         string                 `json:"user_id"`
	ComplaintType  domain.ComplaintType   `json:"complaint_type"`
	Description    string                 `json:"description"`
	Status         domain.ComplaintStatus `json:"status"`
	ResolutionNote string                 `json:"resolution_note,omitempty"`
	Attachment     *AttachmentResponse    `json:"attachment,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// NewComplaintResponse maps a complaint; url is the presigned link when known.
func NewComplaintResponse(c *domain.Complaint, url string) ComplaintResponse {
	resp := ComplaintResponse{
		ID:             c.ID,
		OrderID:        c.OrderID,
		UserID:         c.UserID,
		ComplaintType:  c.Type,
		Description:    c.Description,
		Status:         c.Status,
		ResolutionNote: c.ResolutionNote,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.Attachment != nil {
		resp.Attachment = &AttachmentResponse{
			FileName:  c.Attachment.FileName,
			MimeType:  c.Attachment.MimeType,
			SizeBytes: c.Attachment.SizeBytes,
			URL:       url,
		}
	}
	return resp
}

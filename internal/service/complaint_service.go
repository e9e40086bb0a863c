package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/events"
	"github.com/spec-kit/consulting-service/internal/repository"
	"github.com/spec-kit/consulting-service/internal/storage"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

const (
	maxDescriptionLength = 5000
	attachmentURLTTL     = 15 * time.Minute
)

var allowedAttachmentTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/webp":      {},
	"application/pdf": {},
	"text/plain":      {},
}

// ComplaintService handles client complaints and staff review.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	orders     repository.OrderRepository
	users      repository.UserRepository
	objects    storage.ObjectStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	maxUpload  int64
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo  repository.ComplaintRepository
	OrderRepo      repository.OrderRepository
	UserRepo       repository.UserRepository
	Objects        storage.ObjectStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	MaxUploadBytes int64
}

// AttachmentUpload is an optional file sent with a complaint.
type AttachmentUpload struct {
	FileName string
	MimeType string
	Size     int64
	Body     io.Reader
}

// ComplaintInput is what a client submits.
type ComplaintInput struct {
	Type        string
	Description string
	Attachment  *AttachmentUpload
}

// ComplaintView is a complaint plus a short-lived download link.
type ComplaintView struct {
	domain.Complaint
	AttachmentURL string
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	s := &ComplaintService{
		complaints: deps.ComplaintRepo,
		orders:     deps.OrderRepo,
		users:      deps.UserRepo,
		objects:    deps.Objects,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		maxUpload:  deps.MaxUploadBytes,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 5 << 20
	}
	return s
}

// Submit files a complaint against one of the actor's orders.
// Input is fully validated before any repository or storage call.
func (s *ComplaintService) Submit(ctx context.Context, actor domain.Actor, orderID string, input ComplaintInput) (*domain.Complaint, error) {
	complaintType, description, err := s.validateSubmission(orderID, input)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order")
	}
	if order.UserID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}

	complaint := &domain.Complaint{
		OrderID:     orderID,
		UserID:      actor.ID,
		Type:        complaintType,
		Description: description,
		Status:      domain.ComplaintStatusSubmitted,
	}
	if up := input.Attachment; up != nil {
		key := storage.AttachmentKey(orderID, up.FileName)
		if err := s.objects.Put(ctx, key, up.Body, up.Size, up.MimeType); err != nil {
			if errors.Is(err, storage.ErrStorageDisabled) {
				return nil, apperrors.NewValidationError("attachments are not accepted", nil)
			}
			return nil, apperrors.NewDependencyError("object storage", err)
		}
		complaint.Attachment = &domain.Attachment{
			StorageKey: key,
			FileName:   up.FileName,
			MimeType:   up.MimeType,
			SizeBytes:  up.Size,
		}
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		if complaint.Attachment != nil {
			if delErr := s.objects.Delete(ctx, complaint.Attachment.StorageKey); delErr != nil {
				s.logger.Warn("remove orphaned attachment failed", zap.String("key", complaint.Attachment.StorageKey), zap.Error(delErr))
			}
		}
		return nil, err
	}

	s.logger.Info("complaint submitted", zap.String("complaint_id", complaint.ID), zap.String("order_id", orderID))
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventComplaintSubmitted,
		OrderID: orderID,
		Actor:   actor,
		Payload: events.ComplaintPayload{Complaint: complaint, Recipient: actor.Email},
	})
	return complaint, nil
}

func (s *ComplaintService) validateSubmission(orderID string, input ComplaintInput) (domain.ComplaintType, string, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", "", apperrors.NewValidationError("order id is required", nil)
	}
	if strings.TrimSpace(input.Type) == "" {
		return "", "", apperrors.NewValidationError("complaint type is required", map[string]any{"field": "complaint_type"})
	}
	complaintType, err := domain.ParseComplaintType(input.Type)
	if err != nil {
		return "", "", apperrors.NewValidationError(err.Error(), map[string]any{"field": "complaint_type"})
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return "", "", apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}
	if len(description) > maxDescriptionLength {
		return "", "", apperrors.NewValidationError("description too long", map[string]any{"max": maxDescriptionLength})
	}
	if up := input.Attachment; up != nil {
		if up.Body == nil || up.Size <= 0 {
			return "", "", apperrors.NewValidationError("attachment is empty", nil)
		}
		if up.Size > s.maxUpload {
			return "", "", apperrors.NewValidationError("attachment too large", map[string]any{"max_bytes": s.maxUpload})
		}
		if _, ok := allowedAttachmentTypes[strings.ToLower(up.MimeType)]; !ok {
			return "", "", apperrors.NewValidationError("attachment type not allowed", map[string]any{"mime_type": up.MimeType})
		}
	}
	return complaintType, description, nil
}

// Get returns a complaint with a presigned attachment URL when one exists.
func (s *ComplaintService) Get(ctx context.Context, actor domain.Actor, id string) (*ComplaintView, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "complaint")
	}
	if !actor.IsStaff() && complaint.UserID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	view := &ComplaintView{Complaint: *complaint}
	if complaint.Attachment != nil {
		link, err := s.objects.PresignGet(ctx, complaint.Attachment.StorageKey, attachmentURLTTL)
		if err != nil {
			s.logger.Warn("presign attachment failed", zap.String("complaint_id", id), zap.Error(err))
		} else {
			view.AttachmentURL = link
		}
	}
	return view, nil
}

// List returns the actor's complaints, or all complaints for staff.
func (s *ComplaintService) List(ctx context.Context, actor domain.Actor, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	if !actor.IsStaff() {
		filter.UserID = &actor.ID
	}
	items, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Complaint{}
	}
	return items, nil
}

// Review moves a complaint through the review states and notifies the client.
func (s *ComplaintService) Review(ctx context.Context, actor domain.Actor, id, rawStatus, note string) (*domain.Complaint, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff only")
	}
	next, err := domain.ParseComplaintStatus(rawStatus)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"status": rawStatus})
	}
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLength {
		return nil, apperrors.NewValidationError("note too long", map[string]any{"max": maxNoteLength})
	}

	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "complaint")
	}
	if !complaint.Status.CanTransitionTo(next) {
		return nil, apperrors.NewInvalidTransition(string(complaint.Status), string(next))
	}
	old := complaint.Status
	if err := s.complaints.UpdateStatus(ctx, id, old, next, note); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("complaint was modified concurrently, reload and retry", map[string]any{"complaint_id": id})
		}
		return nil, notFoundOr(err, "complaint")
	}
	complaint.Status = next
	if note != "" {
		complaint.ResolutionNote = note
	}

	recipient := ""
	if owner, err := s.users.GetByID(ctx, complaint.UserID); err == nil {
		recipient = owner.Email
	} else {
		s.logger.Warn("complaint owner lookup failed", zap.String("user_id", complaint.UserID), zap.Error(err))
	}

	s.logger.Info("complaint reviewed",
		zap.String("complaint_id", id),
		zap.String("from", string(old)),
		zap.String("to", string(next)),
		zap.String("actor_id", actor.ID))
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventComplaintStatusChanged,
		OrderID: complaint.OrderID,
		Actor:   actor,
		Payload: events.ComplaintPayload{Complaint: complaint, OldStatus: old, Recipient: recipient},
	})
	return complaint, nil
}

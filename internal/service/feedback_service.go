package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/repository"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

// FeedbackService handles client ratings.
type FeedbackService struct {
	feedback repository.FeedbackRepository
	orders   repository.OrderRepository
	logger   *zap.Logger
}

// FeedbackInput is a client rating.
type FeedbackInput struct {
	OrderID *string
	Rating  int    `validate:"min=1,max=5"`
	Comment string `validate:"max=2000"`
}

// NewFeedbackService constructs the service.
func NewFeedbackService(feedback repository.FeedbackRepository, orders repository.OrderRepository, logger *zap.Logger) *FeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{feedback: feedback, orders: orders, logger: logger}
}

// Submit stores a rating. When an order is referenced it must belong to the actor.
func (s *FeedbackService) Submit(ctx context.Context, actor domain.Actor, input FeedbackInput) (*domain.Feedback, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	var orderID *string
	if input.OrderID != nil && strings.TrimSpace(*input.OrderID) != "" {
		id := strings.TrimSpace(*input.OrderID)
		order, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "order")
		}
		if order.UserID != actor.ID {
			return nil, apperrors.NewForbidden("access denied")
		}
		orderID = &id
	}

	fb := &domain.Feedback{
		UserID:  actor.ID,
		OrderID: orderID,
		Rating:  input.Rating,
		Comment: strings.TrimSpace(input.Comment),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// ListOwn returns the actor's feedback.
func (s *FeedbackService) ListOwn(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Feedback, error) {
	return s.list(ctx, &actor.ID, limit, offset)
}

// ListAll returns every feedback entry for staff.
func (s *FeedbackService) ListAll(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Feedback, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff only")
	}
	return s.list(ctx, nil, limit, offset)
}

// Delete removes feedback. The route also requires the admin confirmation code.
func (s *FeedbackService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin only")
	}
	if err := s.feedback.Delete(ctx, id); err != nil {
		return notFoundOr(err, "feedback")
	}
	s.logger.Info("feedback deleted", zap.String("feedback_id", id), zap.String("actor_id", actor.ID))
	return nil
}

func (s *FeedbackService) list(ctx context.Context, userID *string, limit, offset int) ([]domain.Feedback, error) {
	items, err := s.feedback.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Feedback{}
	}
	return items, nil
}

package service

import (
	"context"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/repository"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

// AdminDashboard summarizes the business for admins.
type AdminDashboard struct {
	OrdersByStatus    map[domain.OrderStatus]int
	TotalOrders       int
	Revenue           map[string]int64
	OpenComplaints    int
	AverageRating     float64
	FeedbackCount     int
	UnreadFromClients int64
}

// StaffDashboard summarizes the work queue for staff.
type StaffDashboard struct {
	Confirmed         int
	Processing        int
	UnreadFromClients int64
}

// DashboardService aggregates counters from several stores.
type DashboardService struct {
	orders     repository.OrderRepository
	complaints repository.ComplaintRepository
	feedback   repository.FeedbackRepository
	messages   repository.MessageRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(orders repository.OrderRepository, complaints repository.ComplaintRepository, feedback repository.FeedbackRepository, messages repository.MessageRepository) *DashboardService {
	return &DashboardService{orders: orders, complaints: complaints, feedback: feedback, messages: messages}
}

// Admin returns the admin dashboard.
func (s *DashboardService) Admin(ctx context.Context, actor domain.Actor) (*AdminDashboard, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin only")
	}
	counts, err := s.statusCounts(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orders.RevenueByCurrency(ctx)
	if err != nil {
		return nil, err
	}
	if revenue == nil {
		revenue = map[string]int64{}
	}
	open, err := s.complaints.CountOpen(ctx)
	if err != nil {
		return nil, err
	}
	avg, n, err := s.feedback.AverageRating(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountUnread(ctx, domain.SenderRoleClient)
	if err != nil {
		return nil, apperrors.NewDependencyError("chat store", err)
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	return &AdminDashboard{
		OrdersByStatus:    counts,
		TotalOrders:       total,
		Revenue:           revenue,
		OpenComplaints:    open,
		AverageRating:     avg,
		FeedbackCount:     n,
		UnreadFromClients: unread,
	}, nil
}

// Staff returns the staff dashboard.
func (s *DashboardService) Staff(ctx context.Context, actor domain.Actor) (*StaffDashboard, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff only")
	}
	counts, err := s.statusCounts(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountUnread(ctx, domain.SenderRoleClient)
	if err != nil {
		return nil, apperrors.NewDependencyError("chat store", err)
	}
	return &StaffDashboard{
		Confirmed:         counts[domain.OrderStatusConfirmed],
		Processing:        counts[domain.OrderStatusProcessing],
		UnreadFromClients: unread,
	}, nil
}

// statusCounts fills in zero for statuses with no orders.
func (s *DashboardService) statusCounts(ctx context.Context) (map[domain.OrderStatus]int, error) {
	raw, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.OrderStatus]int, len(domain.OrderStatuses()))
	for _, st := range domain.OrderStatuses() {
		counts[st] = raw[st]
	}
	return counts, nil
}

package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/events"
	"github.com/spec-kit/consulting-service/internal/payment"
	"github.com/spec-kit/consulting-service/internal/repository"
)

var fixedNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var (
	adminActor  = domain.Actor{ID: "admin-1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}
	staffActor  = domain.Actor{ID: "emp-1", Name: "Eve", Email: "eve@example.com", Role: domain.RoleEmployee}
	clientActor = domain.Actor{ID: "client-1", Name: "Cal", Email: "cal@example.com", Role: domain.RoleClient}
	otherClient = domain.Actor{ID: "client-2", Name: "Oli", Email: "oli@example.com", Role: domain.RoleClient}
)

// fakeOrders keeps orders in memory with the same version semantics as Postgres.
type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	nextID int
	// failUpdate forces UpdateStatus to return the error once.
	failUpdate error
}

func newFakeOrders(seed ...*domain.Order) *fakeOrders {
	f := &fakeOrders{orders: make(map[string]*domain.Order)}
	for _, o := range seed {
		f.orders[o.ID] = cloneOrder(o)
	}
	return f
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Timeline = append([]domain.TimelineEvent(nil), o.Timeline...)
	return &c
}

func (f *fakeOrders) Create(_ context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if order.GatewayPaymentID != "" && o.GatewayPaymentID == order.GatewayPaymentID {
			return fmt.Errorf("insert order: %w", &pgconn.PgError{Code: "23505", ConstraintName: "orders_gateway_payment_id_key"})
		}
	}
	f.nextID++
	order.ID = fmt.Sprintf("order-%d", f.nextID)
	order.Version = 1
	order.CreatedAt = fixedNow
	order.UpdatedAt = fixedNow
	f.orders[order.ID] = cloneOrder(order)
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneOrder(o), nil
}

func (f *fakeOrders) GetByGatewayPaymentID(_ context.Context, paymentID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.GatewayPaymentID == paymentID {
			return cloneOrder(o), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeOrders) List(_ context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, orderID string, expectedVersion int, event domain.TimelineEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		err := f.failUpdate
		f.failUpdate = nil
		return err
	}
	o, ok := f.orders[orderID]
	if !ok {
		return pgx.ErrNoRows
	}
	if o.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	o.Status = event.Status
	o.Version++
	o.Timeline = append(o.Timeline, event)
	return nil
}

func (f *fakeOrders) CountByStatus(_ context.Context) (map[domain.OrderStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[domain.OrderStatus]int{}
	for _, o := range f.orders {
		out[o.Status]++
	}
	return out, nil
}

func (f *fakeOrders) RevenueByCurrency(_ context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int64{}
	for _, o := range f.orders {
		if o.PaymentStatus == domain.PaymentStatusCompleted {
			out[o.Currency] += o.Amount
		}
	}
	return out, nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

// recordingDispatcher captures published events and still fans them out.
type recordingDispatcher struct {
	events.Dispatcher
	mu        sync.Mutex
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher(nil)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	d.mu.Unlock()
	return d.Dispatcher.Publish(ctx, event)
}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

type fakeCatalog struct {
	categories map[string]*domain.ServiceCategory
	services   map[string]*domain.Service
	listCalls  int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		categories: map[string]*domain.ServiceCategory{
			"cat-1": {ID: "cat-1", Name: "Strategy", Active: true},
		},
		services: map[string]*domain.Service{
			"svc-1":   {ID: "svc-1", CategoryID: "cat-1", Name: "Market study", Price: 149900, Currency: "INR", Active: true},
			"svc-old": {ID: "svc-old", CategoryID: "cat-1", Name: "Retired", Price: 1000, Currency: "INR", Active: false},
		},
	}
}

func (f *fakeCatalog) CreateCategory(_ context.Context, c *domain.ServiceCategory) error {
	c.ID = fmt.Sprintf("cat-%d", len(f.categories)+1)
	cp := *c
	f.categories[c.ID] = &cp
	return nil
}

func (f *fakeCatalog) UpdateCategory(_ context.Context, c *domain.ServiceCategory) error {
	if _, ok := f.categories[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *c
	f.categories[c.ID] = &cp
	return nil
}

func (f *fakeCatalog) GetCategory(_ context.Context, id string) (*domain.ServiceCategory, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCatalog) ListCategories(_ context.Context, includeInactive bool) ([]domain.ServiceCategory, error) {
	var out []domain.ServiceCategory
	for _, c := range f.categories {
		if c.Active || includeInactive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCatalog) CreateService(_ context.Context, s *domain.Service) error {
	s.ID = fmt.Sprintf("svc-%d", len(f.services)+1)
	cp := *s
	f.services[s.ID] = &cp
	return nil
}

func (f *fakeCatalog) UpdateService(_ context.Context, s *domain.Service) error {
	if _, ok := f.services[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *s
	f.services[s.ID] = &cp
	return nil
}

func (f *fakeCatalog) GetService(_ context.Context, id string) (*domain.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeCatalog) ListServices(_ context.Context, includeInactive bool) ([]domain.Service, error) {
	f.listCalls++
	var out []domain.Service
	for _, s := range f.services {
		if s.Active || includeInactive {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	attempts map[string]*domain.PaymentAttempt
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{attempts: make(map[string]*domain.PaymentAttempt)}
}

func (f *fakeAttempts) Create(_ context.Context, a *domain.PaymentAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = fmt.Sprintf("attempt-%d", len(f.attempts)+1)
	a.CreatedAt = fixedNow
	cp := *a
	f.attempts[a.ID] = &cp
	return nil
}

func (f *fakeAttempts) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*domain.PaymentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.GatewayOrderID == gatewayOrderID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAttempts) MarkCompleted(_ context.Context, id, paymentID string) error {
	return f.mark(id, func(a *domain.PaymentAttempt) {
		a.Status = domain.PaymentStatusCompleted
		a.GatewayPaymentID = paymentID
	})
}

func (f *fakeAttempts) MarkFailed(_ context.Context, id, reason string) error {
	return f.mark(id, func(a *domain.PaymentAttempt) {
		a.Status = domain.PaymentStatusFailed
		a.FailureReason = reason
	})
}

func (f *fakeAttempts) mark(id string, apply func(*domain.PaymentAttempt)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok || a.Status != domain.PaymentStatusPending {
		return pgx.ErrNoRows
	}
	apply(a)
	return nil
}

func (f *fakeAttempts) get(id string) domain.PaymentAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.attempts[id]
}

// mockGateway is a testify mock of payment.Gateway.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string      { return payment.GatewayRazorpay }
func (m *mockGateway) PublicKey() string { return "rzp_test_key" }

func (m *mockGateway) CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.GatewayOrder, error) {
	args := m.Called(ctx, req)
	if o, ok := args.Get(0).(*payment.GatewayOrder); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) VerifyPayment(ctx context.Context, c payment.Confirmation) error {
	return m.Called(ctx, c).Error(0)
}

// mockComplaints is a testify mock so tests can assert it was never touched.
type mockComplaints struct {
	mock.Mock
}

func (m *mockComplaints) Create(ctx context.Context, c *domain.Complaint) error {
	args := m.Called(ctx, c)
	if args.Error(0) == nil {
		c.ID = "complaint-1"
	}
	return args.Error(0)
}

func (m *mockComplaints) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*domain.Complaint); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockComplaints) List(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]domain.Complaint)
	return items, args.Error(1)
}

func (m *mockComplaints) UpdateStatus(ctx context.Context, id string, from, to domain.ComplaintStatus, note string) error {
	return m.Called(ctx, id, from, to, note).Error(0)
}

func (m *mockComplaints) CountOpen(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockObjects struct {
	mock.Mock
}

func (m *mockObjects) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, body, size, contentType).Error(0)
}

func (m *mockObjects) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockObjects) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUsers(seed ...*domain.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]*domain.User)}
	for _, u := range seed {
		cp := *u
		f.users[u.ID] = &cp
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) List(_ context.Context, _ repository.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

type fakeResets struct {
	tokens map[string]*domain.PasswordResetToken
}

func newFakeResets() *fakeResets {
	return &fakeResets{tokens: make(map[string]*domain.PasswordResetToken)}
}

func (f *fakeResets) Create(_ context.Context, t *domain.PasswordResetToken) error {
	t.ID = fmt.Sprintf("reset-%d", len(f.tokens)+1)
	cp := *t
	f.tokens[t.Token] = &cp
	return nil
}

func (f *fakeResets) GetByToken(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeResets) MarkUsed(_ context.Context, id string) error {
	for _, t := range f.tokens {
		if t.ID == id && t.UsedAt == nil {
			now := fixedNow
			t.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeFeedback struct {
	items []domain.Feedback
}

func (f *fakeFeedback) Create(_ context.Context, fb *domain.Feedback) error {
	fb.ID = fmt.Sprintf("fb-%d", len(f.items)+1)
	f.items = append(f.items, *fb)
	return nil
}

func (f *fakeFeedback) List(_ context.Context, userID *string, _, _ int) ([]domain.Feedback, error) {
	var out []domain.Feedback
	for _, fb := range f.items {
		if userID == nil || fb.UserID == *userID {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (f *fakeFeedback) Delete(_ context.Context, id string) error {
	for i, fb := range f.items {
		if fb.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeFeedback) AverageRating(_ context.Context) (float64, int, error) {
	if len(f.items) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, fb := range f.items {
		sum += fb.Rating
	}
	return float64(sum) / float64(len(f.items)), len(f.items), nil
}

func pendingOrder(id, userID string) *domain.Order {
	return &domain.Order{
		ID:          id,
		UserID:      userID,
		UserName:    "Cal",
		UserEmail:   "cal@example.com",
		ServiceID:   "svc-1",
		ServiceName: "Market study",
		Amount:      149900,
		Currency:    "INR",
		Status:      domain.OrderStatusPending,
		Version:     1,
		Timeline: []domain.TimelineEvent{
			{Status: domain.OrderStatusPending, Message: "Order placed", Timestamp: fixedNow.Add(-time.Hour), UpdatedBy: userID},
		},
	}
}

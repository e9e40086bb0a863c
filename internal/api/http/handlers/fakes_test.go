package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/consulting-service/internal/api/http"
	"github.com/spec-kit/consulting-service/internal/auth"
	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/repository"
)

var (
	clientUser = &domain.User{ID: "client-1", DisplayName: "Cal", Email: "cal@example.com", Role: domain.RoleClient, Active: true}
	otherUser  = &domain.User{ID: "client-2", DisplayName: "Ola", Email: "ola@example.com", Role: domain.RoleClient, Active: true}
	staffUser  = &domain.User{ID: "emp-1", DisplayName: "Eve", Email: "eve@example.com", Role: domain.RoleEmployee, Active: true}
	adminUser  = &domain.User{ID: "admin-1", DisplayName: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin, Active: true}
)

// newApp installs the production error envelope and, when user is set, a fixed principal.
func newApp(user *domain.User) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httptransport.ErrorHandler(zap.NewNop(), nil)})
	if user != nil {
		app.Use(func(c *fiber.Ctx) error {
			auth.WithPrincipal(c, &auth.Principal{User: user})
			return c.Next()
		})
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return nil
	}
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func errorCode(body map[string]any) string {
	envelope, _ := body["error"].(map[string]any)
	code, _ := envelope["code"].(string)
	return code
}

type userStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
	next  int
}

func newUserStore(seed ...*domain.User) *userStore {
	s := &userStore{users: make(map[string]*domain.User)}
	for _, u := range seed {
		c := *u
		s.users[u.ID] = &c
	}
	return s
}

func (s *userStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	user.ID = fmt.Sprintf("user-%d", s.next)
	user.CreatedAt = time.Now()
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *userStore) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *userStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, pgx.ErrNoRows
}

func (s *userStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *userStore) List(_ context.Context, _ repository.UserFilter) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type orderStore struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newOrderStore(seed ...*domain.Order) *orderStore {
	s := &orderStore{orders: make(map[string]*domain.Order)}
	for _, o := range seed {
		s.orders[o.ID] = copyOrder(o)
	}
	return s
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Timeline = append([]domain.TimelineEvent(nil), o.Timeline...)
	return &c
}

func (s *orderStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = fmt.Sprintf("order-%d", len(s.orders)+1)
	order.Version = 1
	s.orders[order.ID] = copyOrder(order)
	return nil
}

func (s *orderStore) GetByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return copyOrder(o), nil
	}
	return nil, pgx.ErrNoRows
}

func (s *orderStore) GetByGatewayPaymentID(_ context.Context, paymentID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.GatewayPaymentID == paymentID {
			return copyOrder(o), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *orderStore) List(_ context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Order
	for _, o := range s.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *orderStore) UpdateStatus(_ context.Context, orderID string, expectedVersion int, event domain.TimelineEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return pgx.ErrNoRows
	}
	if o.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	o.Status = event.Status
	o.Timeline = append(o.Timeline, event)
	o.Version++
	return nil
}

func (s *orderStore) CountByStatus(_ context.Context) (map[domain.OrderStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[domain.OrderStatus]int{}
	for _, o := range s.orders {
		out[o.Status]++
	}
	return out, nil
}

func (s *orderStore) RevenueByCurrency(_ context.Context) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func confirmedOrder(id, userID string) *domain.Order {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Order{
		ID:            id,
		UserID:        userID,
		ServiceID:     "svc-1",
		ServiceName:   "Market study",
		Amount:        149900,
		Currency:      "INR",
		Status:        domain.OrderStatusConfirmed,
		PaymentStatus: domain.PaymentStatusCompleted,
		Version:       1,
		Timeline: []domain.TimelineEvent{
			{Status: domain.OrderStatusPending, Message: "Order placed", Timestamp: at, UpdatedBy: userID},
			{Status: domain.OrderStatusConfirmed, Message: "Payment received", Timestamp: at, UpdatedBy: "system"},
		},
	}
}

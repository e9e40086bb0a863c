package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/api/http/handlers"
	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/events"
	"github.com/spec-kit/consulting-service/internal/repository"
	"github.com/spec-kit/consulting-service/internal/service"
)

type orderFixture struct {
	orders   *orderStore
	messages repository.MessageRepository
	handler  *handlers.OrdersHandler
	staff    *handlers.StaffOrdersHandler
}

func newOrderFixture(seed ...*domain.Order) *orderFixture {
	orders := newOrderStore(seed...)
	messages := repository.NewMemoryMessageRepository()
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	orderService := service.NewOrderService(service.OrderDependencies{OrderRepo: orders, Dispatcher: dispatcher})
	chatService := service.NewChatService(service.ChatDependencies{OrderRepo: orders, MessageRepo: messages, Dispatcher: dispatcher})
	chatService.RegisterHandlers(dispatcher)
	dashboards := service.NewDashboardService(orders, nil, nil, messages)
	return &orderFixture{
		orders:   orders,
		messages: messages,
		handler:  handlers.NewOrdersHandler(orderService, chatService),
		staff:    handlers.NewStaffOrdersHandler(orderService, dashboards),
	}
}

func (f *orderFixture) app(user *domain.User) *fiber.App {
	app := newApp(user)
	app.Get("/orders", f.handler.ListOwn)
	app.Get("/orders/:id", f.handler.Get)
	app.Post("/orders/:id/cancel", f.handler.Cancel)
	app.Get("/orders/:id/messages", f.handler.ListMessages)
	app.Post("/orders/:id/messages", f.handler.SendMessage)
	app.Patch("/staff/orders/:id/status", f.staff.UpdateStatus)
	app.Get("/staff/orders", f.staff.List)
	return app
}

func TestSendAndListMessages(t *testing.T) {
	f := newOrderFixture(confirmedOrder("order-1", clientUser.ID))
	app := f.app(clientUser)

	status, body := doJSON(t, app, http.MethodPost, "/orders/order-1/messages", map[string]string{"text": "  hello there  "})
	require.Equal(t, http.StatusCreated, status)
	sent := body["data"].(map[string]any)
	assert.Equal(t, "hello there", sent["text"])
	assert.Equal(t, "client", sent["sender_role"])

	status, body = doJSON(t, app, http.MethodGet, "/orders/order-1/messages", nil)
	require.Equal(t, http.StatusOK, status)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	last := items[len(items)-1].(map[string]any)
	assert.Equal(t, sent["id"], last["id"])
	assert.Equal(t, "hello there", last["text"])

	status, body = doJSON(t, app, http.MethodGet, "/orders/order-1/messages?after_seq=-1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestSendMessageRejections(t *testing.T) {
	f := newOrderFixture(confirmedOrder("order-1", clientUser.ID))

	tests := []struct {
		name       string
		user       *domain.User
		text       string
		wantStatus int
		wantCode   string
	}{
		{"blank text", clientUser, "   ", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"foreign order", otherUser, "hi", http.StatusForbidden, "FORBIDDEN"},
		{"staff may post", staffUser, "on it", http.StatusCreated, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, f.app(tt.user), http.MethodPost, "/orders/order-1/messages", map[string]string{"text": tt.text})
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(body))
			}
		})
	}
}

func TestStaffStatusUpdate(t *testing.T) {
	f := newOrderFixture(confirmedOrder("order-1", clientUser.ID))
	app := f.app(staffUser)

	status, body := doJSON(t, app, http.MethodPatch, "/staff/orders/order-1/status", map[string]string{
		"status": "processing",
		"note":   "kickoff call booked",
	})
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "processing", data["status"])
	timeline := data["timeline"].([]any)
	require.Len(t, timeline, 3)
	assert.Equal(t, "processing", timeline[2].(map[string]any)["status"])

	status, body = doJSON(t, app, http.MethodPatch, "/staff/orders/order-1/status", map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))

	status, body = doJSON(t, app, http.MethodPatch, "/staff/orders/order-1/status", map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	// the status change also lands in the order chat
	msgs, err := f.messages.List(t.Context(), "order-1", 0, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.SenderRoleSystem, msgs[0].SenderRole)
}

func TestStaffOrderListFilters(t *testing.T) {
	f := newOrderFixture(confirmedOrder("order-1", clientUser.ID))

	status, body := doJSON(t, f.app(clientUser), http.MethodGet, "/staff/orders", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = doJSON(t, f.app(staffUser), http.MethodGet, "/staff/orders?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = doJSON(t, f.app(staffUser), http.MethodGet, "/staff/orders?created_from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = doJSON(t, f.app(staffUser), http.MethodGet, "/staff/orders?status=confirmed,processing", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 1)
}

func TestClientSeesOnlyOwnOrders(t *testing.T) {
	f := newOrderFixture(confirmedOrder("order-1", clientUser.ID), confirmedOrder("order-2", otherUser.ID))

	status, body := doJSON(t, f.app(clientUser), http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, status)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "order-1", items[0].(map[string]any)["id"])

	status, _ = doJSON(t, f.app(clientUser), http.MethodGet, "/orders/order-2", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, f.app(clientUser), http.MethodPost, "/orders/order-1/cancel", map[string]string{"reason": "changed plans"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "cancelled", body["data"].(map[string]any)["status"])
}

// pgOrderStore rejects ids the way a UUID column does.
type pgOrderStore struct {
	*orderStore
}

func (s pgOrderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("get order: %w", &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"})
	}
	return s.orderStore.GetByID(ctx, id)
}

func TestMalformedOrderIDIsNotFound(t *testing.T) {
	orders := pgOrderStore{newOrderStore(confirmedOrder(uuid.NewString(), clientUser.ID))}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	orderService := service.NewOrderService(service.OrderDependencies{OrderRepo: orders, Dispatcher: dispatcher})
	chatService := service.NewChatService(service.ChatDependencies{OrderRepo: orders, MessageRepo: repository.NewMemoryMessageRepository(), Dispatcher: dispatcher})
	h := handlers.NewOrdersHandler(orderService, chatService)

	app := newApp(clientUser)
	app.Get("/orders/:id", h.Get)
	app.Post("/orders/:id/cancel", h.Cancel)
	app.Get("/orders/:id/messages", h.ListMessages)

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/orders/order-1"},
		{http.MethodPost, "/orders/order-1/cancel"},
		{http.MethodGet, "/orders/order-1/messages"},
	} {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			status, body := doJSON(t, app, tt.method, tt.path, nil)
			assert.Equal(t, http.StatusNotFound, status)
			assert.Equal(t, "NOT_FOUND", errorCode(body))
		})
	}
}

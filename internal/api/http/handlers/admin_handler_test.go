package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/consulting-service/internal/api/http/handlers"
	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/notification"
)

func TestNotificationsNewestFirst(t *testing.T) {
	log := notification.NewEmailLog(10)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	log.Append(domain.EmailRecord{MessageID: "m1", Timestamp: at, Recipient: "a@example.com", Category: domain.EmailCategoryOrderPlaced, Status: notification.StatusSent, Attempts: 1})
	log.Append(domain.EmailRecord{MessageID: "m2", Timestamp: at.Add(time.Minute), Recipient: "b@example.com", Category: domain.EmailCategoryOrderStatus, Status: notification.StatusFailed, Attempts: 3, Error: "smtp down"})

	h := handlers.NewAdminHandler(nil, nil, log)
	app := newApp(adminUser)
	app.Get("/admin/notifications", h.Notifications)

	status, body := doJSON(t, app, http.MethodGet, "/admin/notifications", nil)
	require.Equal(t, http.StatusOK, status)
	items := body["data"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "m2", items[0].(map[string]any)["message_id"])
	assert.Equal(t, "smtp down", items[0].(map[string]any)["error"])

	status, body = doJSON(t, app, http.MethodGet, "/admin/notifications?status=sent", nil)
	require.Equal(t, http.StatusOK, status)
	items = body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "m1", items[0].(map[string]any)["message_id"])
}

func TestAdminUserManagement(t *testing.T) {
	users := newUserStore(adminUser, clientUser)
	h := handlers.NewAdminHandler(nil, newAuthService(users), notification.NewEmailLog(1))
	app := newApp(adminUser)
	app.Get("/admin/users", h.ListUsers)
	app.Patch("/admin/users/:id/role", h.SetRole)
	app.Patch("/admin/users/:id/active", h.SetActive)

	status, body := doJSON(t, app, http.MethodGet, "/admin/users", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]any), 2)

	status, body = doJSON(t, app, http.MethodGet, "/admin/users?role=wizard", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = doJSON(t, app, http.MethodPatch, "/admin/users/client-1/role", map[string]string{"role": "consultant"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "consultant", body["data"].(map[string]any)["role"])

	status, body = doJSON(t, app, http.MethodPatch, "/admin/users/client-1/active", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = doJSON(t, app, http.MethodPatch, "/admin/users/admin-1/active", map[string]any{"active": false})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyReportsFailingDependency(t *testing.T) {
	h := handlers.NewHealthHandler("consulting", "test", map[string]handlers.Pinger{
		"postgres": pingFunc(func(context.Context) error { return nil }),
		"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	app := newApp(nil)
	app.Get("/health/live", h.Live)
	app.Get("/health/ready", h.Ready)

	status, _ := doJSON(t, app, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.NotEmpty(t, errorCode(body))
}

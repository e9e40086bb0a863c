package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/consulting-service/internal/domain"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken("user-1", domain.RoleEmployee)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, domain.RoleEmployee, claims.Role)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestAuthMiddlewareAndRoles(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	users := fakeUsers{
		"client-1":   {ID: "client-1", Role: domain.RoleClient, Active: true},
		"admin-1":    {ID: "admin-1", Role: domain.RoleAdmin, Active: true},
		"disabled-1": {ID: "disabled-1", Role: domain.RoleEmployee, Active: false},
	}
	mw := NewAuthMiddleware(tm, users)

	app := newTestApp()
	app.Get("/staff", mw.Handle, RequireStaff(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Actor().ID)
	})

	tokenFor := func(id string, role domain.Role) string {
		tok, _, err := tm.GenerateToken(id, role)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"unknown user", tokenFor("ghost", domain.RoleAdmin), http.StatusUnauthorized},
		{"disabled user", tokenFor("disabled-1", domain.RoleEmployee), http.StatusForbidden},
		{"client forbidden", tokenFor("client-1", domain.RoleClient), http.StatusForbidden},
		{"admin allowed", tokenFor("admin-1", domain.RoleAdmin), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRoleFromStoredUserNotToken(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	users := fakeUsers{"u1": {ID: "u1", Role: domain.RoleClient, Active: true}}
	app := newTestApp()
	app.Get("/admin", NewAuthMiddleware(tm, users).Handle, RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	// token claims admin, but the stored account is a client
	tok, _, err := tm.GenerateToken("u1", domain.RoleAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequireConfirmationCode(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		sent       string
		wantStatus int
	}{
		{"matching code", "s3cret", "s3cret", http.StatusNoContent},
		{"wrong code", "s3cret", "guess", http.StatusForbidden},
		{"missing code", "s3cret", "", http.StatusForbidden},
		{"feature disabled", "", "anything", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Delete("/x", RequireConfirmationCode(tt.configured), func(c *fiber.Ctx) error {
				return c.SendStatus(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodDelete, "/x", nil)
			if tt.sent != "" {
				req.Header.Set(ConfirmationHeader, tt.sent)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.Error(t, ComparePassword(hash, "battery staple"))
}

func TestCheckPasswordPolicy(t *testing.T) {
	assert.ErrorIs(t, CheckPasswordPolicy("short"), ErrPasswordTooShort)
	assert.NoError(t, CheckPasswordPolicy("long enough"))
}

package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

// ConfirmationHeader carries the second factor for destructive admin actions.
const ConfirmationHeader = "X-Confirmation-Code"

// RequireConfirmationCode checks the confirmation header against the server-held code.
// An empty configured code disables the guarded routes entirely.
func RequireConfirmationCode(code string) fiber.Handler {
	expected := []byte(strings.TrimSpace(code))
	return func(c *fiber.Ctx) error {
		if len(expected) == 0 {
			return apperrors.NewForbidden("destructive actions are disabled")
		}
		got := []byte(strings.TrimSpace(c.Get(ConfirmationHeader)))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			return apperrors.NewForbidden("invalid confirmation code")
		}
		return c.Next()
	}
}

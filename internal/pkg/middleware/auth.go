package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/FelixBrandt/PayFox/app/models"
	"github.com/FelixBrandt/PayFox/internal/pkg/token"
	"github.com/FelixBrandt/PayFox/internal/pkg/usercontext"
)

// RequireAuth validates the Authorization bearer token and installs the
// user context for downstream handlers. Requests without a valid token
// are rejected with 401.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Missing or malformed authorization header",
			})
		}

		claims, err := token.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Invalid or expired token",
			})
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:     claims.UserID,
			Username:   claims.Name,
			IsLoggedIn: true,
			IsAdmin:    claims.Role == models.ROLE_ADMIN,
		})

		return c.Next()
	}
}

package middleware

import (
	"github.com/dosreb/planlibrary/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// RequireActor rejects requests that did not identify an actor. Used on
// routes whose result is meaningless for the shared default actor.
func RequireActor(c *fiber.Ctx) error {
	if usercontext.IsAnonymous(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "X-Actor-ID header required",
		})
	}
	return c.Next()
}

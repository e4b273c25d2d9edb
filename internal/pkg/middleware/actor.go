package middleware

import (
	"strings"

	"github.com/dosreb/planlibrary/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

const maxActorIDLength = 64

// ActorMiddleware reads the acting identity from the X-Actor-ID header.
// Requests without the header run as the default actor, which the facade
// resolves.
func ActorMiddleware(c *fiber.Ctx) error {
	actorID := strings.TrimSpace(c.Get(usercontext.ActorHeader))
	if len(actorID) > maxActorIDLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": "actor id is too long",
		})
	}

	c.Locals(usercontext.KeyActor, usercontext.ActorContext{
		ActorID:   actorID,
		Anonymous: actorID == "",
	})
	return c.Next()
}

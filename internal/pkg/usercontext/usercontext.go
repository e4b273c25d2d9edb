package usercontext

import "github.com/gofiber/fiber/v2"

// ActorContext identifies on whose behalf a request runs
type ActorContext struct {
	ActorID string `json:"actor_id"`
	// Anonymous is true when no actor header was sent and the default actor applies
	Anonymous bool `json:"anonymous"`
}

// GetActorContext retrieves the actor context from fiber context.
// Returns an anonymous context if none is set.
func GetActorContext(c *fiber.Ctx) ActorContext {
	if ctx, ok := c.Locals(KeyActor).(ActorContext); ok {
		return ctx
	}
	return ActorContext{Anonymous: true}
}

// GetActorID returns the acting identity, or empty string for the default actor
func GetActorID(c *fiber.Ctx) string {
	return GetActorContext(c).ActorID
}

// IsAnonymous reports whether the request carried no actor header
func IsAnonymous(c *fiber.Ctx) bool {
	return GetActorContext(c).Anonymous
}

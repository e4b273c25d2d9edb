package usercontext

// Locals keys shared by middlewares and controllers
const (
	KeyActor    = "ACTOR_CONTEXT"
	ActorHeader = "X-Actor-ID"
)

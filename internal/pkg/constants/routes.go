package constants

// Route constants
const (
	APIRoute         = "/api"
	APIv1Route       = "/v1"
	PlanLibraryRoute = "/plan-library"
	HealthRoute      = "/health"
	MetricsRoute     = "/metrics"
	DocsRoute        = "/docs/api/"
	// OpenAPI document served by the docs UI, relative to the project root
	OpenAPIFile = "public/docs/v1/openapi.yml"
)

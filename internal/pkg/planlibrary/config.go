package planlibrary

import (
	"time"

	"github.com/dosreb/planlibrary/internal/pkg/env"
)

const DefaultActorID = "00000000-0000-0000-0000-000000000001"

// Config holds the facade settings
type Config struct {
	// DefaultActor is used when a caller does not identify itself.
	DefaultActor string
	// SwallowReadErrors turns failed list reads into empty results.
	SwallowReadErrors bool
	CategoryCacheTTL  time.Duration
	// Organizations is the raw "org:user1,user2;org2:user3" membership list.
	Organizations string
}

func LoadConfig() Config {
	return Config{
		DefaultActor:      env.GetEnv("PLAN_LIBRARY_DEFAULT_ACTOR", DefaultActorID),
		SwallowReadErrors: env.GetEnvBool("PLAN_LIBRARY_SWALLOW_READ_ERRORS", false),
		CategoryCacheTTL:  env.GetEnvDuration("PLAN_CATEGORY_CACHE_TTL", 5*time.Minute),
		Organizations:     env.GetEnv("PLAN_LIBRARY_ORGANIZATIONS", ""),
	}
}

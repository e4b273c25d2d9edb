package env

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt returns def when the key is unset or not a number.
func GetEnvInt(key string, def int) int {
	raw := strings.TrimSpace(GetEnv(key, ""))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("[Env] %s=%q is not an integer, using %d", key, raw, def)
		return def
	}
	return v
}

func GetEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(GetEnv(key, ""))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warnf("[Env] %s=%q is not a boolean, using %t", key, raw, def)
		return def
	}
	return v
}

// GetEnvDuration accepts Go duration strings ("90s", "5m") or plain seconds.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(GetEnv(key, ""))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Warnf("[Env] %s=%q is not a duration, using %s", key, raw, def)
	return def
}

func SetupEnvFile() {
	// Look for .env file in project root
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/planlibrary to project root
		"../../../.env", // Fallback for deeper nesting
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			return
		}
	}

	// Containers usually ship without a .env file
	Env = map[string]string{}
	log.Info("[Env] No .env file found, using process environment")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}

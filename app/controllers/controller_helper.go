package controllers

import (
	"strconv"
	"strings"

	"github.com/dosreb/planlibrary/internal/pkg/apperror"
	"github.com/dosreb/planlibrary/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// respondError writes the JSON error envelope for err. Errors outside the
// app taxonomy are logged and reported as internal errors.
func respondError(c *fiber.Ctx, err error) error {
	appErr := apperror.GetAppError(err)
	if appErr == nil {
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   string(apperror.TypeInternal),
			"message": "internal server error",
		})
	}

	if appErr.Code >= fiber.StatusInternalServerError {
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
	}
	body := fiber.Map{
		"error":   string(appErr.Type),
		"message": appErr.Message,
	}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	return c.Status(apperror.HTTPStatus(err)).JSON(body)
}

// actorID returns the identity set by the actor middleware
func actorID(c *fiber.Ctx) string {
	return usercontext.GetActorID(c)
}

// splitList reads a comma separated query value
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// queryLimit parses an optional positive limit parameter
func queryLimit(c *fiber.Ctx, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperror.NewValidationError("limit must be a positive integer", raw)
	}
	return n, nil
}

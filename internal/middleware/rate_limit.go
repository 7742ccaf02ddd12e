package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/student-records-api/internal/utils"
)

// RateLimit limits requests per client IP within window. Health and metrics are never limited.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Next: func(c *fiber.Ctx) bool {
			path := c.Path()
			return path == "/metrics" || path == "/api/v1/health"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return fmt.Sprintf("%s:%s", identifier, c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendErrorWithDetail(c, fiber.StatusTooManyRequests, "too many requests", &utils.ErrorBody{Code: "rate_limited"})
		},
	})
}

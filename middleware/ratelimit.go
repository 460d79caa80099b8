package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"

	"bert-gateway/models"
	"bert-gateway/services"
)

// RateLimit allows max requests per client address in any sliding window of
// the given length. Health checks are never limited.
func RateLimit(max int, window time.Duration, logger *logrus.Entry) fiber.Handler {
	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return isHealthPath(c.Path())
		},
		Max:        max,
		Expiration: window,
		// the limiter keeps keys across requests; c.IP() may alias the request buffer
		KeyGenerator: func(c *fiber.Ctx) string {
			return utils.CopyString(c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			logger.WithField("ip", c.IP()).Warn("rate limit reached")
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Kind:  string(services.KindRateLimited),
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "requestID"

// RequestID returns the id attached by RequestLogMiddleware, or "" when
// the middleware has not run for this request.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// RequestLogMiddleware tags every request with an id and logs its outcome.
func RequestLogMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := uuid.NewString()
		c.Locals(requestIDKey, requestID)
		c.Set("X-Request-ID", requestID)

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		logger.Info("request completed",
			zap.String("requestID", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Duration("duration", duration),
			zap.Int("status", c.Response().StatusCode()),
		)
		return err
	}
}

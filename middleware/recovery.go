package middleware

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a handler panic into a 500 response. A failure
// is scoped to one request; the process keeps serving.
func RecoveryMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("error", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
					zap.String("requestID", RequestID(c)),
				)

				c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"code":    "internal",
					"message": "internal error",
				})
			}
		}()
		return c.Next()
	}
}

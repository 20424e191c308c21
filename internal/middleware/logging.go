// Package middleware provides fiber middleware for request context, logging,
// tracing, metrics and rate limiting.
package middleware

import (
	"log/slog"
	"time"

	"vibefeed/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// CorrelationHeader carries a caller-supplied correlation id.
const CorrelationHeader = "X-Correlation-ID"

// ContextMiddleware copies the request id from fiber locals into the request
// context and attaches a correlation id, so service-layer logs carry both.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ctx = observability.WithRequestID(ctx, rid)
		}

		cid := c.Get(CorrelationHeader)
		if cid == "" {
			cid = observability.GenerateCorrelationID()
		}
		ctx = observability.WithCorrelationID(ctx, cid)
		c.Set(CorrelationHeader, cid)

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger returns a Fiber middleware for logging requests using slog
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get("User-Agent")),
		}

		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			observability.GlobalLogger.ErrorContext(c.UserContext(), "request failed", fields...)
		} else {
			observability.GlobalLogger.InfoContext(c.UserContext(), "request processed", fields...)
		}

		return err
	}
}

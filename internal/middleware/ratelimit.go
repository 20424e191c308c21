package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vibefeed/internal/models"
	"vibefeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned to clients that exceed their request budget.
var ErrRateLimited = &models.AppError{Code: models.CodeRateLimited, Message: "Too many requests, slow down"}

// CheckRateLimit increments the counter for (resource, id) and reports
// whether it is still within limit for the current window.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, errors.New("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimit enforces limit requests per window per client IP. It is a no-op
// without Redis or with a non-positive limit, and fails open when Redis errors.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil || limit <= 0 {
			return c.Next()
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, "ip:"+c.IP(), limit, window)
		if err != nil {
			observability.GlobalLogger.WarnContext(c.UserContext(), "rate limit check failed, allowing request",
				"resource", resource, "error", err)
			return c.Next()
		}
		if !allowed {
			return models.RespondWithError(c, fiber.StatusTooManyRequests, ErrRateLimited)
		}
		return c.Next()
	}
}

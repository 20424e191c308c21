// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"vibefeed/internal/observability"

	"github.com/redis/go-redis/v9"
)

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.ViewCacheResults.WithLabelValues("error").Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

// Connect returns a Redis client for addr, or nil when addr is empty or the
// server does not answer. The service runs without a cache in that case.
func Connect(ctx context.Context, addr string) *redis.Client {
	if strings.TrimSpace(addr) == "" {
		return nil
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "invalid REDIS_URL, continuing without cache", "error", err)
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "redis unavailable, continuing without cache", "error", err)
		_ = client.Close()
		return nil
	}
	observability.GlobalLogger.InfoContext(ctx, "redis connected")
	return client
}

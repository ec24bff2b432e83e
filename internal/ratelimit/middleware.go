package ratelimit

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/pkg/errorbank"
)

// EchoMiddleware limits requests per client IP. A limiter failure
// (e.g. redis outage) fails open: the request proceeds and the error
// is logged, so rate limiting never takes the storefront down.
func EchoMiddleware(limiter Limiter, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res, err := limiter.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				if logger != nil {
					logger.Warn("rate limit check failed", zap.Error(err))
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", fmt.Sprintf("%d", res.Limit))
			h.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))

			if !res.Allowed {
				retryAfter := int(time.Until(res.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				return errorbank.TooManyRequests("too many requests, slow down")
			}
			return next(c)
		}
	}
}

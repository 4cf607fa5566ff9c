package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"disputedesk/internal/usecase"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/logger"
)

// RateLimit limits action per client IP.
func RateLimit(limiter usecase.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ok, wait := limiter.Allow(ip, action); !ok {
				logger.Warn("RATE LIMIT: %s blocked for %s (retry in %v)", action, ip, wait)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return errors.TooManyRequests("Too many requests, please try again later")
			}
			return next(c)
		}
	}
}

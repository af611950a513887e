package middleware

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"task-manager.com/task-manager/internal/ratelimit"
)

// RateLimiter rejects clients over the limiter's budget with 429. A limiter
// backend failure lets the request through.
func RateLimiter(limiter ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, err := limiter.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				log.Printf("rate limiter unavailable: %v", err)
				return next(c)
			}

			if !ok {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too Many Attempts.")
			}

			return next(c)
		}
	}
}

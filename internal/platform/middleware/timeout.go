package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

// RequestTimeout sets a deadline on each request context. Store calls made
// with that context are cancelled once it passes, and the request fails
// with a timeout error (504). /metrics and /health are exempt.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if timeout <= 0 || path == "/metrics" || strings.HasPrefix(path, "/health") {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !apperr.IsKind(err, apperr.KindTimeout) {
				return apperr.Timeout(err, "request exceeded %s", timeout)
			}
			return err
		}
	}
}

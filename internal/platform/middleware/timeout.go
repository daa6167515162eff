package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout bounds each request with a context deadline. The handler
// runs on the request goroutine and sees the deadline through the request
// context; stores abort their queries when it passes. A handler that
// ignores the deadline is waited for, never abandoned. When the deadline
// passed and nothing was written yet, the caller gets 504 with a
// request_timeout body.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Response().Committed {
				return echo.NewHTTPError(http.StatusGatewayTimeout, map[string]interface{}{
					"code":    "request_timeout",
					"message": "request exceeded " + timeout.String(),
				})
			}
			return err
		}
	}
}

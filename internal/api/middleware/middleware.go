package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RequestLogger logs one line per request. Server errors log at error
// level so they stand out in filtered log streams.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Commit the error response so the logged status is real.
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []any{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
			}
			if res.Status >= 500 {
				logger.Error("request", attrs...)
			} else {
				logger.Info("request", attrs...)
			}

			return err
		}
	}
}

// Recover converts handler panics into 500 responses.
func Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

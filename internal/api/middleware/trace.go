package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/danbi-garden/danbi/internal/logger"
)

// TraceContext copies the request ID into the request context so every log
// line written for the request carries it as trace_id. It must run after
// Echo's RequestID middleware.
func TraceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			if id != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
			}
			return next(c)
		}
	}
}

package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/storefront/internal/logutil"
)

// RequestLogger puts a per-request logger into the request context and logs
// one line per request once the handler returns.  The request id is taken
// from X-Request-ID when present and echoed back.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			logger := base.With().
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()
			c.SetRequest(req.WithContext(logutil.WithLogger(req.Context(), logger)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			ev := logger.Info()
			if status := c.Response().Status; status >= 500 {
				ev = logger.Error()
			}
			if u := CurrentUser(c); u != nil {
				ev = ev.Str("user_id", u.ID)
			}
			ev.Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}

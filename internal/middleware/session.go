package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/logutil"
	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/session"
)

// userKey is where SessionAuth stores the resolved *model.User.
const userKey = "user"

// SessionAuth resolves the session cookie of every request.  Requests without
// a valid session continue anonymously; only a failing user store aborts the
// request with 500.  Use RequireUser or RequireAdmin to protect routes.
func SessionAuth(gate *session.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			u, err := gate.FromRequest(ctx, c.Request())
			if err != nil {
				lg := logutil.GetOrDefault(ctx)
				lg.Error().Err(err).Msg("session lookup failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if u != nil {
				c.Set(userKey, u)
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user SessionAuth resolved, or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

// RequireUser rejects anonymous requests with 401.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}

package middleware

import "github.com/labstack/echo/v4"

// userID identifies the caller for rate-limit keys.  Anonymous callers share
// "guest".
func userID(c echo.Context) string {
	if u := CurrentUser(c); u != nil && u.ID != "" {
		return u.ID
	}
	return "guest"
}

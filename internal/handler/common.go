package handler // handler defines http handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/logutil"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// internalError logs err against the request and answers 500 with msg.
func internalError(c echo.Context, err error, msg string) error {
	lg := logutil.GetOrDefault(c.Request().Context())
	lg.Error().Err(err).Msg(msg)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

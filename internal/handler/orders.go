package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/middleware"
	"github.com/iliyamo/storefront/internal/service"
)

const (
	defaultSalesDays = 30
	maxSalesDays     = 365
)

// OrderHandler exposes checkout, the order list and the sales summary.
type OrderHandler struct {
	Orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{Orders: orders}
}

type checkoutReq struct {
	Items []service.CartLine `json:"items"`
}

// Checkout places an order for the signed-in user.
func (h *OrderHandler) Checkout(c echo.Context) error {
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	o, err := h.Orders.Checkout(ctx, middleware.CurrentUser(c).ID, req.Items)
	if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrUnknownProduct) {
		return badRequest(c, err.Error())
	}
	if err != nil {
		return internalError(c, err, "checkout failed")
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Orders.List(ctx)
	if err != nil {
		return internalError(c, err, "list orders failed")
	}
	return c.JSON(http.StatusOK, list)
}

// Sales summarises the last ?days= days (default 30, at most 365).
func (h *OrderHandler) Sales(c echo.Context) error {
	days := defaultSalesDays
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSalesDays {
			return badRequest(c, "days must be between 1 and 365")
		}
		days = n
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sum, err := h.Orders.Sales(ctx, days)
	if err != nil {
		return internalError(c, err, "sales summary failed")
	}
	return c.JSON(http.StatusOK, sum)
}

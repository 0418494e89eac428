package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/storefront/internal/logutil"
	"github.com/iliyamo/storefront/internal/model"
)

// ProductLister is the read side of the catalog.
type ProductLister interface {
	List(ctx context.Context) ([]model.Product, error)
}

// OrderStore persists orders.
type OrderStore interface {
	List(ctx context.Context) ([]model.Order, error)
	Create(ctx context.Context, o model.Order) error
}

// CartLine is one entry of a client-side cart submitted at checkout.
type CartLine struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// OrderService places orders and summarises sales.
type OrderService struct {
	Products ProductLister
	Orders   OrderStore
	now      func() time.Time
}

func NewOrderService(products ProductLister, orders OrderStore) *OrderService {
	return &OrderService{Products: products, Orders: orders, now: time.Now}
}

// Checkout turns a cart into an order.  Prices come from the catalog, never
// from the client.  Lines naming the same product are merged.
func (s *OrderService) Checkout(ctx context.Context, userID string, lines []CartLine) (model.Order, error) {
	if len(lines) == 0 {
		return model.Order{}, fmt.Errorf("%w: empty cart", ErrInvalidInput)
	}
	products, err := s.Products.List(ctx)
	if err != nil {
		return model.Order{}, err
	}
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var items []model.OrderItem
	index := map[string]int{}
	total := 0.0
	for _, l := range lines {
		id := strings.TrimSpace(l.ProductID)
		if l.Qty < 1 {
			return model.Order{}, fmt.Errorf("%w: qty must be at least 1", ErrInvalidInput)
		}
		p, ok := byID[id]
		if !ok {
			return model.Order{}, fmt.Errorf("%w: %q", ErrUnknownProduct, id)
		}
		if i, seen := index[id]; seen {
			items[i].Qty += l.Qty
		} else {
			index[id] = len(items)
			items = append(items, model.OrderItem{ProductID: id, Qty: l.Qty, Price: p.Price})
		}
		total += p.Price * float64(l.Qty)
	}

	o := model.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now().UnixMilli(),
		Items:     items,
		Total:     roundCents(total),
	}
	if err := s.Orders.Create(ctx, o); err != nil {
		return model.Order{}, err
	}
	lg := logutil.GetOrDefault(ctx)
	lg.Info().Str("order_id", o.ID).Float64("total", o.Total).Msg("order placed")
	return o, nil
}

func (s *OrderService) List(ctx context.Context) ([]model.Order, error) {
	return s.Orders.List(ctx)
}

func roundCents(v float64) float64 { return math.Round(v*100) / 100 }

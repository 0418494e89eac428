package service

import (
	"cmp"
	"context"
	"slices"
	"time"
)

// topProducts is how many best sellers a summary lists.
const topProducts = 5

// TopProduct is a best seller within the summary window.  Removed is set when
// the product is no longer in the catalog.
type TopProduct struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
	Name      string `json:"nome,omitempty"`
	Removed   bool   `json:"removed,omitempty"`
}

// SalesSummary backs the admin dashboard.
type SalesSummary struct {
	Days    int          `json:"days"`
	Orders  int          `json:"orders"`
	Revenue float64      `json:"revenue"`
	Top     []TopProduct `json:"top"`
}

// Sales summarises the orders placed in the last days days.
func (s *OrderService) Sales(ctx context.Context, days int) (SalesSummary, error) {
	orders, err := s.Orders.List(ctx)
	if err != nil {
		return SalesSummary{}, err
	}
	products, err := s.Products.List(ctx)
	if err != nil {
		return SalesSummary{}, err
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	now := s.now().UnixMilli()
	window := (time.Duration(days) * 24 * time.Hour).Milliseconds()
	sum := SalesSummary{Days: days, Top: []TopProduct{}}
	qty := map[string]int{}
	revenue := 0.0
	for _, o := range orders {
		if now-o.CreatedAt > window {
			continue
		}
		sum.Orders++
		revenue += o.Total
		for _, it := range o.Items {
			qty[it.ProductID] += it.Qty
		}
	}
	sum.Revenue = roundCents(revenue)

	for id, n := range qty {
		sum.Top = append(sum.Top, TopProduct{ProductID: id, Qty: n})
	}
	slices.SortFunc(sum.Top, func(a, b TopProduct) int {
		if c := cmp.Compare(b.Qty, a.Qty); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if len(sum.Top) > topProducts {
		sum.Top = sum.Top[:topProducts]
	}
	for i := range sum.Top {
		if name, ok := names[sum.Top[i].ProductID]; ok {
			sum.Top[i].Name = name
		} else {
			sum.Top[i].Removed = true
		}
	}
	return sum, nil
}

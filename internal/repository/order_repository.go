package repository

import (
	"context"
	"path/filepath"

	"github.com/iliyamo/storefront/internal/model"
)

// OrderRepo keeps placed orders in DATA_DIR/orders.json.
type OrderRepo struct{ file *jsonFile[[]model.Order] }

func NewOrderRepo(dataDir string) *OrderRepo {
	return &OrderRepo{file: newJSONFile[[]model.Order](filepath.Join(dataDir, "orders.json"))}
}

func (r *OrderRepo) List(ctx context.Context) ([]model.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, err := r.file.load()
	if list == nil {
		list = []model.Order{}
	}
	return list, err
}

func (r *OrderRepo) Create(ctx context.Context, o model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.file.update(func(list *[]model.Order) error {
		*list = append(*list, o)
		return nil
	})
}

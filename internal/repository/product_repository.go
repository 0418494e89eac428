// Package repository contains data access logic separated from HTTP handlers.
// This file holds the catalog products kept in DATA_DIR/products.json.
package repository

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/iliyamo/storefront/internal/model"
)

// ProductRepo encapsulates reads and writes of the product list.
type ProductRepo struct{ file *jsonFile[[]model.Product] }

func NewProductRepo(dataDir string) *ProductRepo {
	return &ProductRepo{file: newJSONFile[[]model.Product](filepath.Join(dataDir, "products.json"))}
}

// List returns every product in file order.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, err := r.file.load()
	if list == nil {
		list = []model.Product{}
	}
	return list, err
}

// Get returns the product with the given id or ErrNotFound.
func (r *ProductRepo) Get(ctx context.Context, id string) (model.Product, error) {
	list, err := r.List(ctx)
	if err != nil {
		return model.Product{}, err
	}
	for _, p := range list {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, ErrNotFound
}

// Create appends p.  Names are unique case-insensitively.
func (r *ProductRepo) Create(ctx context.Context, p model.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.file.update(func(list *[]model.Product) error {
		if productNameTaken(*list, "", p.Name) {
			return ErrNameExists
		}
		*list = append(*list, p)
		return nil
	})
}

// Update applies fn to the product with the given id.  A rename that
// collides with another product yields ErrNameExists and nothing is written.
func (r *ProductRepo) Update(ctx context.Context, id string, fn func(*model.Product) error) (model.Product, error) {
	if err := ctx.Err(); err != nil {
		return model.Product{}, err
	}
	var out model.Product
	err := r.file.update(func(list *[]model.Product) error {
		for i := range *list {
			if (*list)[i].ID != id {
				continue
			}
			p := (*list)[i]
			if err := fn(&p); err != nil {
				return err
			}
			if productNameTaken(*list, id, p.Name) {
				return ErrNameExists
			}
			(*list)[i] = p
			out = p
			return nil
		}
		return ErrNotFound
	})
	return out, err
}

// Delete removes the product and returns what was removed.
func (r *ProductRepo) Delete(ctx context.Context, id string) (model.Product, error) {
	if err := ctx.Err(); err != nil {
		return model.Product{}, err
	}
	var removed model.Product
	err := r.file.update(func(list *[]model.Product) error {
		for i, p := range *list {
			if p.ID == id {
				removed = p
				*list = append((*list)[:i], (*list)[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	return removed, err
}

func productNameTaken(list []model.Product, exceptID, name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range list {
		if p.ID != exceptID && strings.ToLower(strings.TrimSpace(p.Name)) == name {
			return true
		}
	}
	return false
}

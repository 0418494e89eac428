package repository

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/iliyamo/storefront/internal/model"
)

// CategoryRepo keeps categories in DATA_DIR/categories.json.
type CategoryRepo struct{ file *jsonFile[[]model.Category] }

func NewCategoryRepo(dataDir string) *CategoryRepo {
	return &CategoryRepo{file: newJSONFile[[]model.Category](filepath.Join(dataDir, "categories.json"))}
}

func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, err := r.file.load()
	if list == nil {
		list = []model.Category{}
	}
	return list, err
}

func (r *CategoryRepo) Create(ctx context.Context, c model.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.file.update(func(list *[]model.Category) error {
		if categoryNameTaken(*list, "", c.Name) {
			return ErrNameExists
		}
		*list = append(*list, c)
		return nil
	})
}

// Rename sets a new name on the category, keeping names unique.
func (r *CategoryRepo) Rename(ctx context.Context, id, name string) (model.Category, error) {
	if err := ctx.Err(); err != nil {
		return model.Category{}, err
	}
	var out model.Category
	err := r.file.update(func(list *[]model.Category) error {
		idx := -1
		for i, c := range *list {
			if c.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrNotFound
		}
		if categoryNameTaken(*list, id, name) {
			return ErrNameExists
		}
		(*list)[idx].Name = name
		out = (*list)[idx]
		return nil
	})
	return out, err
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) (model.Category, error) {
	if err := ctx.Err(); err != nil {
		return model.Category{}, err
	}
	var removed model.Category
	err := r.file.update(func(list *[]model.Category) error {
		for i, c := range *list {
			if c.ID == id {
				removed = c
				*list = append((*list)[:i], (*list)[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	return removed, err
}

func categoryNameTaken(list []model.Category, exceptID, name string) bool {
	for _, c := range list {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

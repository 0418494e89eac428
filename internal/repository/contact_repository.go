package repository

import (
	"context"
	"path/filepath"

	"github.com/iliyamo/storefront/internal/model"
)

// ContactRepo keeps the single contact card in DATA_DIR/contacts.json.
type ContactRepo struct{ file *jsonFile[model.Contacts] }

func NewContactRepo(dataDir string) *ContactRepo {
	return &ContactRepo{file: newJSONFile[model.Contacts](filepath.Join(dataDir, "contacts.json"))}
}

// Get returns the stored card, or the zero card when none was saved yet.
func (r *ContactRepo) Get(ctx context.Context) (model.Contacts, error) {
	if err := ctx.Err(); err != nil {
		return model.Contacts{}, err
	}
	return r.file.load()
}

// Update applies fn to the stored card and saves it.
func (r *ContactRepo) Update(ctx context.Context, fn func(*model.Contacts)) (model.Contacts, error) {
	if err := ctx.Err(); err != nil {
		return model.Contacts{}, err
	}
	var out model.Contacts
	err := r.file.update(func(c *model.Contacts) error {
		fn(c)
		out = *c
		return nil
	})
	return out, err
}

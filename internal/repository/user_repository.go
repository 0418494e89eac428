package repository

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/iliyamo/storefront/internal/model"
)

// UserStore is the credential store.  Lookups return ErrNotFound for unknown
// keys; Create returns ErrEmailExists when the email is taken.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByVerifyToken(ctx context.Context, token string) (model.User, error)
	// Update loads the user, applies fn and stores the result atomically
	// with respect to other writers of the same store.
	Update(ctx context.Context, id string, fn func(*model.User) error) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

// UserRepo keeps users in DATA_DIR/users.json.
type UserRepo struct{ file *jsonFile[[]model.User] }

func NewUserRepo(dataDir string) *UserRepo {
	return &UserRepo{file: newJSONFile[[]model.User](filepath.Join(dataDir, "users.json"))}
}

// Create appends u after checking that its normalized email is unused.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.Email = normalizeEmail(u.Email)
	return r.file.update(func(list *[]model.User) error {
		for _, existing := range *list {
			if existing.Email == u.Email {
				return ErrEmailExists
			}
		}
		*list = append(*list, u)
		return nil
	})
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.find(ctx, func(u model.User) bool { return u.ID == id })
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = normalizeEmail(email)
	return r.find(ctx, func(u model.User) bool { return u.Email == email })
}

func (r *UserRepo) GetByVerifyToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrNotFound
	}
	return r.find(ctx, func(u model.User) bool { return u.VerifyToken == token })
}

func (r *UserRepo) Update(ctx context.Context, id string, fn func(*model.User) error) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}
	var out model.User
	err := r.file.update(func(list *[]model.User) error {
		for i := range *list {
			if (*list)[i].ID != id {
				continue
			}
			u := (*list)[i]
			if err := fn(&u); err != nil {
				return err
			}
			(*list)[i] = u
			out = u
			return nil
		}
		return ErrNotFound
	})
	return out, err
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.file.load()
}

func (r *UserRepo) find(ctx context.Context, match func(model.User) bool) (model.User, error) {
	list, err := r.List(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range list {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Package session resolves the signed session cookie into a user and
// manages the cookie's lifecycle.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/utils"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// UserLookup is the slice of the credential store the gate needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// Gate turns a session value into the stored user.  It does not decide
// admin access; callers test User.IsAdmin themselves.
type Gate struct {
	Codec *utils.SessionCodec
	Users UserLookup
}

func NewGate(codec *utils.SessionCodec, users UserLookup) *Gate {
	return &Gate{Codec: codec, Users: users}
}

// FromRequest reads the session cookie from r.  A missing or invalid cookie,
// or a user that no longer exists, yields (nil, nil).  Only a failing store
// returns an error.
func (g *Gate) FromRequest(ctx context.Context, r *http.Request) (*model.User, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil
	}
	return g.FromValue(ctx, c.Value)
}

// FromCookieHeader does the same as FromRequest starting from a raw Cookie
// header, for callers that have no parsed request.
func (g *Gate) FromCookieHeader(ctx context.Context, header string) (*model.User, error) {
	value, ok := ValueFromHeader(header)
	if !ok {
		return nil, nil
	}
	return g.FromValue(ctx, value)
}

// FromValue verifies a raw session value and loads its user.
func (g *Gate) FromValue(ctx context.Context, value string) (*model.User, error) {
	if value == "" {
		return nil, nil
	}
	id, ok := g.Codec.Verify(value)
	if !ok {
		return nil, nil
	}
	u, err := g.Users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ValueFromHeader extracts the session value from a raw Cookie header.
func ValueFromHeader(header string) (string, bool) {
	const prefix = CookieName + "="
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, prefix) {
			return strings.TrimPrefix(part, prefix), true
		}
	}
	return "", false
}

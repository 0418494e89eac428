package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/utils"
)

type fakeUsers struct {
	users map[string]model.User
	err   error
}

func (f fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func newGate(t *testing.T, users fakeUsers) *Gate {
	t.Helper()
	codec, err := utils.NewSessionCodec([]byte("0123456789abcdef-test"), time.Hour)
	require.NoError(t, err)
	return NewGate(codec, users)
}

func aliceStore() fakeUsers {
	return fakeUsers{users: map[string]model.User{
		"u-alice": {ID: "u-alice", Email: "alice@example.com"},
	}}
}

func TestGate_NoCookie(t *testing.T) {
	g := newGate(t, aliceStore())
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	u, err := g.FromRequest(context.Background(), r)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = g.FromCookieHeader(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestGate_ValidCookieBothPaths(t *testing.T) {
	g := newGate(t, aliceStore())
	value, err := g.Codec.Create("u-alice")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: value})
	viaJar, err := g.FromRequest(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, viaJar)

	viaHeader, err := g.FromCookieHeader(context.Background(), "theme=dark;  session="+value+" ; other=1")
	require.NoError(t, err)
	require.NotNil(t, viaHeader)

	assert.Equal(t, viaJar, viaHeader)
	assert.Equal(t, "u-alice", viaJar.ID)
}

func TestGate_TamperedCookie(t *testing.T) {
	g := newGate(t, aliceStore())
	value, err := g.Codec.Create("u-alice")
	require.NoError(t, err)

	// payload segments start with "eyJ", the encoding of `{"`
	tampered := "x" + value[1:]
	u, err := g.FromCookieHeader(context.Background(), "session="+tampered)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestGate_UnknownUser(t *testing.T) {
	g := newGate(t, aliceStore())
	value, err := g.Codec.Create("u-deleted")
	require.NoError(t, err)

	u, err := g.FromValue(context.Background(), value)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestGate_StoreFailure(t *testing.T) {
	g := newGate(t, fakeUsers{err: errors.New("disk on fire")})
	value, err := g.Codec.Create("u-alice")
	require.NoError(t, err)

	u, err := g.FromValue(context.Background(), value)
	assert.Error(t, err)
	assert.Nil(t, u)
}

func TestValueFromHeader(t *testing.T) {
	v, ok := ValueFromHeader("a=1; session=abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", v)

	_, ok = ValueFromHeader("sessionx=1; a=2")
	assert.False(t, ok)
}

func TestSetAndClearCookie(t *testing.T) {
	g := newGate(t, aliceStore())

	rec := httptest.NewRecorder()
	require.NoError(t, SetCookie(rec, g.Codec, "u-alice", true))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 7*24*60*60, c.MaxAge)

	id, ok := g.Codec.Verify(c.Value)
	assert.True(t, ok)
	assert.Equal(t, "u-alice", id)

	rec = httptest.NewRecorder()
	ClearCookie(rec, false)
	header := rec.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(header, "session=;"))
	assert.Contains(t, header, "Max-Age=0")
	assert.NotContains(t, header, "Secure")
}

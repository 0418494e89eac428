package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/logutil"
	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/session"
	"github.com/iliyamo/storefront/internal/utils"
)

type stubUsers map[string]model.User

func (s stubUsers) GetByID(_ context.Context, id string) (model.User, error) {
	if id == "u-broken" {
		return model.User{}, errors.New("io error")
	}
	u, ok := s[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func newTestGate(t *testing.T) *session.Gate {
	t.Helper()
	codec, err := utils.NewSessionCodec([]byte("middleware-test-secret"), time.Hour)
	require.NoError(t, err)
	return session.NewGate(codec, stubUsers{
		"u-admin": {ID: "u-admin", IsAdmin: true},
		"u-bob":   {ID: "u-bob"},
	})
}

func serve(e *echo.Echo, method, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAdminGate(t *testing.T) {
	gate := newTestGate(t)
	e := echo.New()
	e.Use(SessionAuth(gate))
	e.GET("/admin", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, RequireAdmin())
	e.GET("/mine", func(c echo.Context) error { return c.String(http.StatusOK, CurrentUser(c).ID) }, RequireUser())

	admin, err := gate.Codec.Create("u-admin")
	require.NoError(t, err)
	bob, err := gate.Codec.Create("u-bob")
	require.NoError(t, err)
	ghost, err := gate.Codec.Create("u-ghost")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin", ghost).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", bob).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", admin).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/mine", "").Code)
	rec := serve(e, http.MethodGet, "/mine", bob)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-bob", rec.Body.String())
}

func TestSessionAuth_StoreFailure(t *testing.T) {
	gate := newTestGate(t)
	e := echo.New()
	e.Use(SessionAuth(gate))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	broken, err := gate.Codec.Create("u-broken")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, serve(e, http.MethodGet, "/", broken).Code)
}

func newLocalCache(t *testing.T) (config.CacheConfig, CacheStore) {
	t.Helper()
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
		LocalMaxMB:   8,
	}
	store, err := NewCacheStore(cfg, nil)
	require.NoError(t, err)
	return cfg, store
}

func TestResponseCache_HitMissPurge(t *testing.T) {
	cfg, store := newLocalCache(t)
	calls := 0
	e := echo.New()
	e.GET("/items/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "calls": calls})
	}, ResponseCache(cfg, store))
	e.POST("/items", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, PurgeCache(store))
	e.GET("/missing", func(c echo.Context) error { calls++; return c.NoContent(http.StatusNotFound) }, ResponseCache(cfg, store))

	first := serve(e, http.MethodGet, "/items/1", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(e, http.MethodGet, "/items/1", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	// different id, different entry
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/items/2", "").Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/items", "").Code)
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/items/1", "").Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)

	// non-200 responses are not stored
	serve(e, http.MethodGet, "/missing", "")
	assert.Equal(t, "MISS", serve(e, http.MethodGet, "/missing", "").Header().Get("X-Cache"))
	assert.Equal(t, 5, calls)
}

func TestResponseCache_Disabled(t *testing.T) {
	cfg, store := newLocalCache(t)
	cfg.Enabled = false
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "x") }, ResponseCache(cfg, store))

	rec := serve(e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestPayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, gotHdr, body, err := decodePayload(bs)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, err = decodePayload([]byte{1, 2})
	assert.Error(t, err)
}

func TestTokenBucket_PassThroughWithoutRedis(t *testing.T) {
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/login", "").Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/auth/login")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /v1/auth/login", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:guest", buildRateKey(cfg, c))

	c.Set(userKey, &model.User{ID: "u-1"})
	assert.Equal(t, "rl:user:u-1", buildRateKey(cfg, c))

	assert.Equal(t, 2, retryAfterSeconds(1500))
	assert.Equal(t, 0, retryAfterSeconds(-5))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(zerolog.New(&buf)))
	e.GET("/", func(c echo.Context) error {
		lg := logutil.GetOrDefault(c.Request().Context())
		lg.Info().Msg("inside")
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "abc", rec.Header().Get(echo.HeaderXRequestID))
	out := buf.String()
	assert.Contains(t, out, `"request_id":"abc"`)
	assert.Contains(t, out, `"message":"inside"`)
	assert.Contains(t, out, `"status":204`)

	rec = serve(e, http.MethodGet, "/", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/session"
)

const testBase = "http://shop.test"

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		Env:            "dev",
		BaseURL:        testBase,
		DataDir:        dir,
		StoreDriver:    "json",
		AuthSecret:     "0123456789abcdef0123456789abcdef",
		SessionTTL:     time.Hour,
		VerifyTTL:      48 * time.Hour,
		MinPasswordLen: 6,
		MailFrom:       "shop@example.com",
	}
	a, err := New(Options{
		Config: cfg,
		Cache: config.CacheConfig{
			Enabled:      true,
			Methods:      map[string]bool{http.MethodGet: true},
			TTL:          time.Minute,
			KeyStrategy:  "route_query",
			Prefix:       "test",
			MaxBodyBytes: 1 << 20,
			LocalMaxMB:   8,
		},
		Users:  repository.NewUserRepo(dir),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return a
}

func sessionCookie(t *testing.T, res *http.Response) string {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c.Value
		}
	}
	t.Fatal("no session cookie in response")
	return ""
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	bs, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(bs, &v))
	return v
}

func register(t *testing.T, a *App, name, email, password string) (string, string) {
	t.Helper()
	res := apitest.Handler(a.Echo).
		Post("/v1/auth/register").
		JSON(`{"name":"` + name + `","email":"` + email + `","password":"` + password + `"}`).
		Expect(t).
		Status(http.StatusCreated).
		CookiePresent(session.CookieName).
		End()
	body := decode[struct {
		ID         string `json:"id"`
		VerifyLink string `json:"verifyLink"`
	}](t, res.Response)
	return body.ID, sessionCookie(t, res.Response)
}

func login(t *testing.T, a *App, email, password string) string {
	t.Helper()
	res := apitest.Handler(a.Echo).
		Post("/v1/auth/login").
		JSON(`{"email":"` + email + `","password":"` + password + `"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.email", email)).
		End()
	return sessionCookie(t, res.Response)
}

func adminCookie(t *testing.T, a *App) string {
	t.Helper()
	_, err := a.Accounts.CreateAdmin(context.Background(), "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	return login(t, a, "root@example.com", "rootpass")
}

func TestRegisterThenLogin(t *testing.T) {
	a := newTestApp(t)
	id, cookie := register(t, a, "Alice", "alice@example.com", "secret1")
	assert.NotEmpty(t, id)

	apitest.Handler(a.Echo).
		Get("/v1/auth/me").
		Cookie(session.CookieName, cookie).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.id", id)).
		Assert(jsonpath.Equal("$.user.isVerified", false)).
		End()

	login(t, a, "ALICE@example.com", "secret1")

	apitest.Handler(a.Echo).
		Post("/v1/auth/login").
		JSON(`{"email":"alice@example.com","password":"wrongpass"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"invalid credentials"}`).
		End()

	apitest.Handler(a.Echo).
		Post("/v1/auth/login").
		JSON(`{"email":"nobody@example.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"invalid credentials"}`).
		End()
}

func TestRegisterDuplicateKeepsFirstAccount(t *testing.T) {
	a := newTestApp(t)
	id, _ := register(t, a, "Alice", "alice@example.com", "secret1")

	apitest.Handler(a.Echo).
		Post("/v1/auth/register").
		JSON(`{"name":"Mallory","email":"Alice@Example.com","password":"otherpass"}`).
		Expect(t).
		Status(http.StatusConflict).
		End()

	apitest.Handler(a.Echo).
		Post("/v1/auth/login").
		JSON(`{"email":"alice@example.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.id", id)).
		Assert(jsonpath.Equal("$.name", "Alice")).
		End()
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	a := newTestApp(t)
	for _, body := range []string{
		`{"name":"","email":"a@example.com","password":"secret1"}`,
		`{"name":"A","email":"","password":"secret1"}`,
		`{"name":"A","email":"a@example.com","password":"short"}`,
	} {
		apitest.Handler(a.Echo).
			Post("/v1/auth/register").
			JSON(body).
			Expect(t).
			Status(http.StatusBadRequest).
			End()
	}
}

func TestMeWithoutValidSession(t *testing.T) {
	a := newTestApp(t)
	_, cookie := register(t, a, "Alice", "alice@example.com", "secret1")

	apitest.Handler(a.Echo).
		Get("/v1/auth/me").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"user":null}`).
		End()

	apitest.Handler(a.Echo).
		Get("/v1/auth/me").
		Cookie(session.CookieName, "x"+cookie[1:]).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"user":null}`).
		End()

	apitest.Handler(a.Echo).
		Get("/v1/auth/me").
		Cookie(session.CookieName, "garbage").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"user":null}`).
		End()
}

func TestLogoutClearsCookie(t *testing.T) {
	a := newTestApp(t)
	_, cookie := register(t, a, "Alice", "alice@example.com", "secret1")

	res := apitest.Handler(a.Echo).
		Post("/v1/auth/logout").
		Cookie(session.CookieName, cookie).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"ok":true}`).
		End()
	var cleared bool
	for _, c := range res.Response.Cookies() {
		if c.Name == session.CookieName && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestVerifyRedirects(t *testing.T) {
	a := newTestApp(t)
	register(t, a, "Alice", "alice@example.com", "secret1")

	mails, err := a.Outbox.List(context.Background())
	require.NoError(t, err)
	require.Len(t, mails, 1)
	assert.Equal(t, "alice@example.com", mails[0].To)
	assert.Equal(t, "shop@example.com", mails[0].From)

	i := strings.Index(mails[0].Body, testBase+"/v1/auth/verify?token=")
	require.GreaterOrEqual(t, i, 0)
	link := strings.Fields(mails[0].Body[i:])[0]
	u, err := url.Parse(link)
	require.NoError(t, err)

	apitest.Handler(a.Echo).
		Get("/v1/auth/verify").
		Query("token", u.Query().Get("token")).
		Expect(t).
		Status(http.StatusFound).
		Header("Location", testBase+"/login?verified=1").
		End()

	// a used token is gone
	apitest.Handler(a.Echo).
		Get("/v1/auth/verify").
		Query("token", u.Query().Get("token")).
		Expect(t).
		Status(http.StatusFound).
		Header("Location", testBase+"/login?verified=0").
		End()

	apitest.Handler(a.Echo).
		Post("/v1/auth/resend").
		JSON(`{"email":"alice@example.com"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.alreadyVerified", true)).
		End()

	apitest.Handler(a.Echo).
		Post("/v1/auth/resend").
		JSON(`{"email":"nobody@example.com"}`).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"ok":true}`).
		End()
}

func TestAdminGate(t *testing.T) {
	a := newTestApp(t)
	_, cookie := register(t, a, "Alice", "alice@example.com", "secret1")

	apitest.Handler(a.Echo).
		Get("/v1/orders").
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"error":"unauthorized"}`).
		End()

	apitest.Handler(a.Echo).
		Get("/v1/orders").
		Cookie(session.CookieName, cookie).
		Expect(t).
		Status(http.StatusForbidden).
		Body(`{"error":"forbidden"}`).
		End()

	apitest.Handler(a.Echo).
		Post("/v1/products").
		Cookie(session.CookieName, cookie).
		JSON(`{"nome":"Camiseta","preco":10}`).
		Expect(t).
		Status(http.StatusForbidden).
		End()

	apitest.Handler(a.Echo).
		Get("/v1/orders").
		Cookie(session.CookieName, adminCookie(t, a)).
		Expect(t).
		Status(http.StatusOK).
		Body(`[]`).
		End()
}

func TestCatalogCheckoutAndSales(t *testing.T) {
	a := newTestApp(t)
	admin := adminCookie(t, a)
	_, shopper := register(t, a, "Alice", "alice@example.com", "secret1")

	apitest.Handler(a.Echo).
		Get("/v1/products").
		Expect(t).
		Status(http.StatusOK).
		Header("X-Cache", "MISS").
		Body(`[]`).
		End()
	apitest.Handler(a.Echo).
		Get("/v1/products").
		Expect(t).
		Header("X-Cache", "HIT").
		Body(`[]`).
		End()

	res := apitest.Handler(a.Echo).
		Post("/v1/products").
		Cookie(session.CookieName, admin).
		JSON(`{"nome":"Camiseta","preco":10.5}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.categoria", "Outros")).
		End()
	product := decode[struct {
		ID string `json:"id"`
	}](t, res.Response)

	apitest.Handler(a.Echo).
		Post("/v1/products").
		Cookie(session.CookieName, admin).
		JSON(`{"nome":"camiseta","preco":1}`).
		Expect(t).
		Status(http.StatusConflict).
		End()

	// the write purged the cached empty list
	apitest.Handler(a.Echo).
		Get("/v1/products").
		Expect(t).
		Status(http.StatusOK).
		Header("X-Cache", "MISS").
		Assert(jsonpath.Len("$", 1)).
		End()

	apitest.Handler(a.Echo).
		Post("/v1/orders").
		JSON(`{"items":[{"productId":"` + product.ID + `","qty":1}]}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	apitest.Handler(a.Echo).
		Post("/v1/orders").
		Cookie(session.CookieName, shopper).
		JSON(`{"items":[{"productId":"nope","qty":1}]}`).
		Expect(t).
		Status(http.StatusBadRequest).
		End()

	apitest.Handler(a.Echo).
		Post("/v1/orders").
		Cookie(session.CookieName, shopper).
		JSON(`{"items":[{"productId":"` + product.ID + `","qty":2}]}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal("$.total", 21.0)).
		End()

	apitest.Handler(a.Echo).
		Get("/v1/admin/sales").
		Cookie(session.CookieName, admin).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.orders", 1.0)).
		Assert(jsonpath.Equal("$.revenue", 21.0)).
		Assert(jsonpath.Equal("$.top[0].productId", product.ID)).
		End()

	apitest.Handler(a.Echo).
		Get("/v1/admin/sales").
		Query("days", "0").
		Cookie(session.CookieName, admin).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	a := newTestApp(t)
	apitest.Handler(a.Echo).
		Get("/v1/nothing-here").
		Expect(t).
		Status(http.StatusNotFound).
		Assert(jsonpath.Present("$.error")).
		End()

	apitest.Handler(a.Echo).
		Get("/healthz").
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestNewRejectsMissingStore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestOpenUserStoreJSON(t *testing.T) {
	store, closeFn, err := OpenUserStore(context.Background(), config.Config{StoreDriver: "json", DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &repository.UserRepo{}, store)
	assert.NoError(t, closeFn())
}

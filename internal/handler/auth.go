package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/logutil"
	"github.com/iliyamo/storefront/internal/middleware"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/service"
	"github.com/iliyamo/storefront/internal/session"
	"github.com/iliyamo/storefront/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Accounts *service.AccountService
	Codec    *utils.SessionCodec
	BaseURL  string
	// SecureCookie marks the session cookie Secure (production).
	SecureCookie bool
	// ExposeLinks echoes verification links in responses (development).
	ExposeLinks bool
}

func NewAuthHandler(accounts *service.AccountService, codec *utils.SessionCodec, baseURL string, production bool) *AuthHandler {
	return &AuthHandler{
		Accounts:     accounts,
		Codec:        codec,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		SecureCookie: production,
		ExposeLinks:  !production,
	}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resendReq struct {
	Email string `json:"email"`
}

type userResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type registerResp struct {
	userResp
	Message    string `json:"message"`
	VerifyLink string `json:"verifyLink,omitempty"`
}

// Register creates an account, mails the verification link and signs the
// new user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	reg, err := h.Accounts.Register(ctx, req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return badRequest(c, "invalid input")
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	case err != nil:
		return internalError(c, err, "register failed")
	}

	if err := session.SetCookie(c.Response(), h.Codec, reg.User.ID, h.SecureCookie); err != nil {
		return internalError(c, err, "issue session failed")
	}
	resp := registerResp{
		userResp: userResp{ID: reg.User.ID, Name: reg.User.Name, Email: reg.User.Email},
		Message:  "Account created. Check your email to activate it.",
	}
	if h.ExposeLinks {
		resp.VerifyLink = reg.VerifyLink
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login checks the credentials and sets a fresh session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Accounts.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return internalError(c, err, "login failed")
	}

	if err := session.SetCookie(c.Response(), h.Codec, u.ID, h.SecureCookie); err != nil {
		return internalError(c, err, "issue session failed")
	}
	lg := logutil.GetOrDefault(ctx)
	lg.Info().Str("user_id", u.ID).Msg("login")
	return c.JSON(http.StatusOK, userResp{ID: u.ID, Name: u.Name, Email: u.Email})
}

// Me reports the signed-in user, or {"user": null}.
func (h *AuthHandler) Me(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusOK, echo.Map{"user": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u.Public()})
}

// Logout drops the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	session.ClearCookie(c.Response(), h.SecureCookie)
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Verify consumes the emailed token and sends the browser to the login page
// with verified=1 or verified=0.
func (h *AuthHandler) Verify(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	ok, err := h.Accounts.Verify(ctx, c.QueryParam("token"))
	if err != nil {
		lg := logutil.GetOrDefault(ctx)
		lg.Error().Err(err).Msg("verify failed")
	}
	flag := "0"
	if ok {
		flag = "1"
	}
	return c.Redirect(http.StatusFound, h.BaseURL+"/login?verified="+flag)
}

// Resend mails a new verification link.  The answer does not reveal whether
// the email is registered.
func (h *AuthHandler) Resend(c echo.Context) error {
	var req resendReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Accounts.Resend(ctx, req.Email)
	if err != nil {
		return internalError(c, err, "resend failed")
	}
	resp := echo.Map{"ok": true}
	if res.AlreadyVerified {
		resp["alreadyVerified"] = true
	}
	if h.ExposeLinks && res.VerifyLink != "" {
		resp["verifyLink"] = res.VerifyLink
	}
	return c.JSON(http.StatusOK, resp)
}

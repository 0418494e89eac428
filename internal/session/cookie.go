package session

import (
	"net/http"
	"time"

	"github.com/iliyamo/storefront/internal/utils"
)

// CookieMaxAge is the browser-side lifetime of the session cookie.
const CookieMaxAge = 7 * 24 * time.Hour

// SetCookie mints a session value for userID and writes it to w.
func SetCookie(w http.ResponseWriter, codec *utils.SessionCodec, userID string, secure bool) error {
	value, err := codec.Create(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(CookieMaxAge / time.Second),
		Expires:  time.Now().Add(CookieMaxAge),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie tells the browser to drop the session cookie.  A replayed
// value stays valid until its exp.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

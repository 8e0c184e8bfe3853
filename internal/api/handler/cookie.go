package handler

import (
	"net/http"
	"time"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "access_token"

// CookieConfig controls attributes of the session cookie.
type CookieConfig struct {
	// Secure restricts the cookie to HTTPS. Leave off for plain-HTTP development.
	Secure bool
	// MaxAge is the cookie lifetime; it should match the token lifetime.
	MaxAge time.Duration
}

func (cc CookieConfig) session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cc.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (cc CookieConfig) cleared() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/session-auth/internal/core/domain"
)

type stubVerifier struct {
	claims *domain.Claims
	err    error
	calls  int
}

func (v *stubVerifier) Verify(string) (*domain.Claims, error) {
	v.calls++
	return v.claims, v.err
}

func runSession(t *testing.T, verifier *stubVerifier, cookie *http.Cookie) domain.Session {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got domain.Session
	handler := Session("access_token", verifier, zerolog.Nop())(func(c echo.Context) error {
		got = c.Get(domain.SessionContextKey).(domain.Session)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	return got
}

func TestSession_NoCookie(t *testing.T) {
	verifier := &stubVerifier{}
	sess := runSession(t, verifier, nil)

	if sess.State != domain.NoToken || sess.Claims != nil {
		t.Fatalf("expected NoToken, got %+v", sess)
	}
	if verifier.calls != 0 {
		t.Fatalf("verifier should not be called without a token")
	}
}

func TestSession_EmptyCookie(t *testing.T) {
	verifier := &stubVerifier{}
	sess := runSession(t, verifier, &http.Cookie{Name: "access_token", Value: ""})

	if sess.State != domain.NoToken {
		t.Fatalf("expected NoToken, got %v", sess.State)
	}
}

func TestSession_ValidToken(t *testing.T) {
	verifier := &stubVerifier{claims: &domain.Claims{ID: "u-1", Username: "alice"}}
	sess := runSession(t, verifier, &http.Cookie{Name: "access_token", Value: "good"})

	if sess.State != domain.ValidToken || !sess.Authenticated() {
		t.Fatalf("expected ValidToken, got %+v", sess)
	}
	if sess.Claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", sess.Claims)
	}
}

func TestSession_InvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: domain.ErrInvalidToken}
	sess := runSession(t, verifier, &http.Cookie{Name: "access_token", Value: "forged"})

	if sess.State != domain.InvalidToken || sess.Authenticated() {
		t.Fatalf("expected InvalidToken, got %+v", sess)
	}
}

func TestSession_OtherCookieIgnored(t *testing.T) {
	verifier := &stubVerifier{}
	sess := runSession(t, verifier, &http.Cookie{Name: "theme", Value: "dark"})

	if sess.State != domain.NoToken {
		t.Fatalf("expected NoToken, got %v", sess.State)
	}
}

func TestRequireSession(t *testing.T) {
	tests := []struct {
		name    string
		session any
		want    int
	}{
		{"valid", domain.Session{State: domain.ValidToken, Claims: &domain.Claims{ID: "u-1"}}, http.StatusOK},
		{"no token", domain.Session{State: domain.NoToken}, http.StatusUnauthorized},
		{"invalid token", domain.Session{State: domain.InvalidToken}, http.StatusUnauthorized},
		{"middleware not run", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.session != nil {
				c.Set(domain.SessionContextKey, tt.session)
			}

			handler := RequireSession()(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})

			err := handler(c)
			if tt.want == http.StatusOK {
				if err != nil || rec.Code != http.StatusOK {
					t.Fatalf("expected 200, got %d (%v)", rec.Code, err)
				}
				return
			}

			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != tt.want || he.Message != ProtectedRouteMessage {
				t.Fatalf("expected %d with fixed message, got %v", tt.want, err)
			}
		})
	}
}

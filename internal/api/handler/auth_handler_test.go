package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/session-auth/internal/core/domain"
)

type stubCredentialStore struct {
	registerFn     func(ctx context.Context, username, password string) (string, error)
	authenticateFn func(ctx context.Context, username, password string) (*domain.PublicUser, error)
}

func (s *stubCredentialStore) Register(ctx context.Context, username, password string) (string, error) {
	return s.registerFn(ctx, username, password)
}

func (s *stubCredentialStore) Authenticate(ctx context.Context, username, password string) (*domain.PublicUser, error) {
	return s.authenticateFn(ctx, username, password)
}

type stubTokenService struct {
	token string
	err   error
}

func (s *stubTokenService) Issue(domain.PublicUser) (string, error) {
	return s.token, s.err
}

func (s *stubTokenService) Verify(string) (*domain.Claims, error) {
	return nil, domain.ErrInvalidToken
}

var testCookie = CookieConfig{MaxAge: time.Hour}

func newJSONContext(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := echo.New()
	stub := &stubCredentialStore{
		registerFn: func(ctx context.Context, username, password string) (string, error) {
			if username != "alice" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return "id-123", nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokenService{}, testCookie)

	c, rec := newJSONContext(e, "/register", `{"username":"alice","password":"secret1"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "id-123" || resp["username"] != "alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp["message"] != "User alice created with id: id-123!" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
}

func TestAuthHandler_Register_PropagatesDomainErrors(t *testing.T) {
	for _, want := range []error{
		domain.ErrUserExists,
		&domain.ValidationError{Field: "username", Message: "username must be at least 3 characters long"},
	} {
		e := echo.New()
		stub := &stubCredentialStore{
			registerFn: func(context.Context, string, string) (string, error) {
				return "", want
			},
		}
		handler := NewAuthHandler(stub, &stubTokenService{}, testCookie)

		c, _ := newJSONContext(e, "/register", `{"username":"bob","password":"secret1"}`)
		if err := handler.Register(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := echo.New()
	stub := &stubCredentialStore{
		registerFn: func(context.Context, string, string) (string, error) {
			t.Fatalf("should not be called")
			return "", nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokenService{}, testCookie)

	c, _ := newJSONContext(e, "/register", "not-json")
	err := handler.Register(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_NonStringCredentials(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		message string
	}{
		{"numeric username", `{"username":123,"password":"secret1"}`, "username", "username must be a string"},
		{"object password", `{"username":"alice","password":{"x":1}}`, "password", "password must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCredentialStore{
				registerFn: func(context.Context, string, string) (string, error) {
					t.Fatalf("register should not be called")
					return "", nil
				},
				authenticateFn: func(context.Context, string, string) (*domain.PublicUser, error) {
					t.Fatalf("authenticate should not be called")
					return nil, nil
				},
			}
			handler := NewAuthHandler(stub, &stubTokenService{}, testCookie)

			c, _ := newJSONContext(echo.New(), "/register", tt.body)
			var ve *domain.ValidationError
			if err := handler.Register(c); !errors.As(err, &ve) || ve.Field != tt.field || ve.Message != tt.message {
				t.Fatalf("register: expected ValidationError %q, got %v", tt.message, err)
			}

			c, _ = newJSONContext(echo.New(), "/login", tt.body)
			err := handler.Login(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusUnauthorized || he.Message != tt.message {
				t.Fatalf("login: expected 401 %q, got %v", tt.message, err)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := echo.New()
	stub := &stubCredentialStore{
		authenticateFn: func(ctx context.Context, username, password string) (*domain.PublicUser, error) {
			if username != "alice" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &domain.PublicUser{ID: "id-123", Username: "alice"}, nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokenService{token: "token123"}, testCookie)

	c, rec := newJSONContext(e, "/login", `{"username":"alice","password":"secret1"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "id-123" || resp["username"] != "alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, ok := resp["password"]; ok {
		t.Fatalf("password must not be returned")
	}

	ck := findCookie(rec, SessionCookie)
	if ck == nil {
		t.Fatalf("expected %s cookie", SessionCookie)
	}
	if ck.Value != "token123" || !ck.HttpOnly || ck.SameSite != http.SameSiteStrictMode || ck.MaxAge != 3600 || ck.Secure {
		t.Fatalf("unexpected cookie attributes: %+v", ck)
	}
}

func TestAuthHandler_Login_SecureCookie(t *testing.T) {
	e := echo.New()
	stub := &stubCredentialStore{
		authenticateFn: func(context.Context, string, string) (*domain.PublicUser, error) {
			return &domain.PublicUser{ID: "id-123", Username: "alice"}, nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokenService{token: "t"}, CookieConfig{Secure: true, MaxAge: time.Hour})

	c, rec := newJSONContext(e, "/login", `{"username":"alice","password":"secret1"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if ck := findCookie(rec, SessionCookie); ck == nil || !ck.Secure {
		t.Fatalf("expected secure cookie, got %+v", ck)
	}
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"wrong password", domain.ErrInvalidCredentials, authFailureMessage},
		{"unknown user", domain.ErrUserNotFound, authFailureMessage},
		{"validation", &domain.ValidationError{Field: "password", Message: "password must be at least 6 characters long"}, "password must be at least 6 characters long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			stub := &stubCredentialStore{
				authenticateFn: func(context.Context, string, string) (*domain.PublicUser, error) {
					return nil, tt.err
				},
			}
			handler := NewAuthHandler(stub, &stubTokenService{token: "t"}, testCookie)

			c, rec := newJSONContext(e, "/login", `{"username":"alice","password":"bad"}`)
			err := handler.Login(c)

			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusUnauthorized || he.Message != tt.message {
				t.Fatalf("expected 401 %q, got %v", tt.message, err)
			}
			if findCookie(rec, SessionCookie) != nil {
				t.Fatalf("no cookie expected on failure")
			}
		})
	}
}

func TestAuthHandler_Login_UnexpectedError(t *testing.T) {
	e := echo.New()
	boom := errors.New("db down")
	stub := &stubCredentialStore{
		authenticateFn: func(context.Context, string, string) (*domain.PublicUser, error) {
			return nil, boom
		},
	}
	handler := NewAuthHandler(stub, &stubTokenService{}, testCookie)

	c, _ := newJSONContext(e, "/login", `{"username":"alice","password":"secret1"}`)
	if err := handler.Login(c); !errors.Is(err, boom) {
		t.Fatalf("expected raw error for the central handler, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := echo.New()
	stub := &stubCredentialStore{
		authenticateFn: func(context.Context, string, string) (*domain.PublicUser, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, &stubTokenService{}, testCookie)

	c, _ := newJSONContext(e, "/login", "{")
	err := handler.Login(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := echo.New()
	handler := NewAuthHandler(&stubCredentialStore{}, &stubTokenService{}, testCookie)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ck := findCookie(rec, SessionCookie)
	if ck == nil || ck.Value != "" || ck.MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", ck)
	}
}

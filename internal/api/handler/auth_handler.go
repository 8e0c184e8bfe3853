package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/core/ports"
	"github.com/99minutos/session-auth/internal/pkg/metrics"
)

// authFailureMessage is shared by unknown-user and wrong-password failures so
// the response does not reveal which check failed.
const authFailureMessage = "invalid username or password"

type AuthHandler struct {
	credentials ports.CredentialStore
	tokens      ports.TokenService
	cookie      CookieConfig
}

func NewAuthHandler(credentials ports.CredentialStore, tokens ports.TokenService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{credentials: credentials, tokens: tokens, cookie: cookie}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the JSON envelope for every API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Username and password"
// @Success      200   {object}  registerResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	req, err := bindCredentials(c)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	id, err := h.credentials.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registrationResult(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusOK, registerResponse{
		ID:       id,
		Username: req.Username,
		Message:  fmt.Sprintf("User %s created with id: %s!", req.Username, id),
	})
}

// Login verifies credentials and starts a session cookie.
//
// @Summary      Login
// @Description  Sets an HTTP-only, same-site strict access_token cookie valid for one hour.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Login credentials"
// @Success      200   {object}  domain.PublicUser
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	req, err := bindCredentials(c)
	if err != nil {
		return loginFailure(err)
	}

	user, err := h.credentials.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return loginFailure(err)
	}

	token, err := h.tokens.Issue(*user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	c.SetCookie(h.cookie.session(token))
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, user)
}

// Logout clears the session cookie. The token itself stays valid until it
// expires; the server keeps no record to revoke.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.cookie.cleared())
	return c.JSON(http.StatusOK, messageResponse{Message: "logout successful"})
}

// loginFailure turns every rejected login into a 401. Only an unparsable body
// (400) and unexpected errors keep their own status.
func loginFailure(err error) error {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, domain.ErrValidation):
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(err)
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrInvalidCredentials):
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, authFailureMessage).SetInternal(err)
	case errors.As(err, &he):
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("error").Inc()
	return err
}

// bindCredentials decodes the request body. A well-formed body carrying a
// non-string credential is a validation failure; anything unparsable is 400.
func bindCredentials(c echo.Context) (credentialsRequest, error) {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			return req, &domain.ValidationError{
				Field:   ute.Field,
				Message: fmt.Sprintf("%s must be a string", ute.Field),
			}
		}
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	return req, nil
}

func registrationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrUserExists):
		return "conflict"
	default:
		return "error"
	}
}

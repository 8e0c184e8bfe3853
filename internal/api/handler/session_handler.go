package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/session-auth/internal/api/middleware"
	"github.com/99minutos/session-auth/internal/core/domain"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

type currentUserResponse struct {
	User *domain.PublicUser `json:"user"`
}

// Current reports who the caller is logged in as, if anyone.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  currentUserResponse
// @Router       / [get]
func (h *SessionHandler) Current(c echo.Context) error {
	sess := ctxSession(c)
	if !sess.Authenticated() {
		return c.JSON(http.StatusOK, currentUserResponse{})
	}
	return c.JSON(http.StatusOK, currentUserResponse{
		User: &domain.PublicUser{ID: sess.Claims.ID, Username: sess.Claims.Username},
	})
}

// Protected renders the caller's session claims. Mount behind RequireSession.
//
// @Summary      Protected view
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.Claims
// @Failure      401  {object}  ErrorResponse
// @Router       /protected [get]
func (h *SessionHandler) Protected(c echo.Context) error {
	sess := ctxSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, middleware.ProtectedRouteMessage)
	}
	return c.JSON(http.StatusOK, sess.Claims)
}

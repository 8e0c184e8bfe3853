package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/session-auth/internal/core/domain"
)

// ctxSession returns the session resolved by the Session middleware. Without
// the middleware the request is treated as having no token.
func ctxSession(c echo.Context) domain.Session {
	sess, ok := c.Get(domain.SessionContextKey).(domain.Session)
	if !ok {
		return domain.Session{State: domain.NoToken}
	}
	return sess
}

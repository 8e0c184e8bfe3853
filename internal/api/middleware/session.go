package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/session-auth/internal/core/domain"
	"github.com/99minutos/session-auth/internal/pkg/metrics"
)

// ProtectedRouteMessage is returned for every request rejected by RequireSession.
const ProtectedRouteMessage = "Cannot access here. Protected route."

// TokenVerifier is the subset of the token service the middleware needs.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}

// Session resolves the session token carried in cookieName and stores a
// domain.Session under domain.SessionContextKey. It never rejects a request;
// use RequireSession for that.
func Session(cookieName string, verifier TokenVerifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := domain.Session{State: domain.NoToken}

			if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
				claims, err := verifier.Verify(cookie.Value)
				if err != nil {
					log.Debug().Err(err).
						Str("path", c.Request().URL.Path).
						Msg("session token rejected")
					sess.State = domain.InvalidToken
				} else {
					sess = domain.Session{State: domain.ValidToken, Claims: claims}
				}
			}

			metrics.SessionChecksTotal.WithLabelValues(sess.State.String()).Inc()
			c.Set(domain.SessionContextKey, sess)
			return next(c)
		}
	}
}

// RequireSession rejects requests without a verified session. Missing and
// invalid tokens get the same 401 response.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, _ := c.Get(domain.SessionContextKey).(domain.Session)
			if !sess.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, ProtectedRouteMessage)
			}
			return next(c)
		}
	}
}

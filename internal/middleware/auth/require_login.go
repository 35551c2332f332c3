package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// RequireAuth admits requests carrying a valid, unrevoked access token whose
// session is still current.
func (g *Guards) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "guard.require_auth")

		token := AccessToken(c)
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing access token.")
		}

		claims, err := g.Auth.Authenticate(ctx, token)
		if err != nil {
			if errors.Is(err, service.ErrTokenInvalid) || errors.Is(err, service.ErrTokenRevoked) {
				l.Warn("auth_rejected", "status", 401, "reason", service.Message(err))
				g.clearAuthCookies(c)
			} else {
				l.Error("auth_failed", "status", 500, "error", err)
			}
			return httpError(err)
		}

		setUserContext(c, claims)
		return next(c)
	}
}

package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// ValidUser reloads the caller and rejects banned or unverified accounts.
// A caller that no longer exists is rejected too. Must run after RequireAuth.
func (g *Guards) ValidUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "guard.valid_user")

		username := Username(c)
		if username == "" {
			return echo.NewHTTPError(http.StatusForbidden, msgNoPermission)
		}
		u, err := g.Users.GetUser(ctx, username)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				l.Warn("valid_user_rejected", "status", 403, "reason", "user gone", "username", username)
				return echo.NewHTTPError(http.StatusForbidden, msgNoPermission)
			}
			l.Error("valid_user_lookup_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
		}
		if u.IsBanned {
			l.Warn("valid_user_rejected", "status", 403, "reason", "banned", "username", username)
			return httpError(service.ErrUserBanned)
		}
		if !u.IsVerified {
			l.Warn("valid_user_rejected", "status", 403, "reason", "unverified", "username", username)
			return httpError(service.ErrUserUnverified)
		}

		c.Set(ctxUser, u)
		return next(c)
	}
}

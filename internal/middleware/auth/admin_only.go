package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// AdminRequired reloads the caller and admits admins only. Must run after
// RequireAuth.
func (g *Guards) AdminRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "guard.admin_required")

		username := Username(c)
		if username == "" {
			return echo.NewHTTPError(http.StatusForbidden, msgNoPermission)
		}
		u, err := g.Users.GetUser(ctx, username)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return echo.NewHTTPError(http.StatusForbidden, msgNoPermission)
			}
			l.Error("admin_lookup_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
		}
		if !u.IsAdmin {
			l.Warn("admin_rejected", "status", 403, "username", username)
			return echo.NewHTTPError(http.StatusForbidden, msgNoPermission)
		}

		c.Set(ctxUser, u)
		return next(c)
	}
}

// Package auth holds the echo guards in front of protected routes.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/cookies"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

const (
	ctxUsername = "username"
	ctxRole     = "role"
	ctxClaims   = "claims"
	ctxUser     = "user"
)

const msgNoPermission = "You don't have permission to access this resource."

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*tokens.AccessClaims, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
}

type Guards struct {
	Auth    Authenticator
	Users   UserLookup
	Cookies cookies.Options
}

func New(auth Authenticator, users UserLookup, opts cookies.Options) *Guards {
	return &Guards{Auth: auth, Users: users, Cookies: opts}
}

// AccessToken reads the bearer header first and falls back to the cookie.
func AccessToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if ck, err := c.Cookie(cookies.AccessName); err == nil {
		return ck.Value
	}
	return ""
}

func RefreshToken(c echo.Context) string {
	if ck, err := c.Cookie(cookies.RefreshName); err == nil {
		return ck.Value
	}
	return ""
}

func Username(c echo.Context) string {
	s, _ := c.Get(ctxUsername).(string)
	return s
}

func Claims(c echo.Context) *tokens.AccessClaims {
	cl, _ := c.Get(ctxClaims).(*tokens.AccessClaims)
	return cl
}

// User returns the record loaded by ValidUser or AdminRequired.
func User(c echo.Context) *models.User {
	u, _ := c.Get(ctxUser).(*models.User)
	return u
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(ctxClaims, claims)
	c.Set(ctxUsername, claims.Subject)
	c.Set(ctxRole, claims.Role)
}

func (g *Guards) clearAuthCookies(c echo.Context) {
	c.SetCookie(cookies.Delete(cookies.AccessName, g.Cookies))
	c.SetCookie(cookies.Delete(cookies.RefreshName, g.Cookies))
}

func httpError(err error) *echo.HTTPError {
	code := service.HTTPStatus(err)
	msg := service.Message(err)
	if msg == "" || code == http.StatusInternalServerError {
		msg = http.StatusText(code)
		if code == http.StatusInternalServerError {
			msg = "internal server error"
		}
	}
	return echo.NewHTTPError(code, msg).SetInternal(err)
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/cookies"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Confirm *service.ConfirmService
	Cookies cookies.Options
}

func (h *AuthHTTP) setTokenCookies(c echo.Context, res *service.LoginResult) {
	c.SetCookie(cookies.Create(cookies.AccessName, res.AccessToken, res.AccessExp, h.Cookies))
	c.SetCookie(cookies.Create(cookies.RefreshName, res.RefreshToken, res.RefreshExp, h.Cookies))
}

func (h *AuthHTTP) clearTokenCookies(c echo.Context) {
	c.SetCookie(cookies.Delete(cookies.AccessName, h.Cookies))
	c.SetCookie(cookies.Delete(cookies.RefreshName, h.Cookies))
}

func tokenResponse(res *service.LoginResult) transport.TokenResponse {
	return transport.TokenResponse{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		AccessExpiresAt:  res.AccessExp,
		RefreshExpiresAt: res.RefreshExp,
		IsAdmin:          res.IsAdmin,
	}
}

// refreshToken prefers the cookie and falls back to the request body.
func refreshToken(c echo.Context) string {
	if t := mwauth.RefreshToken(c); t != "" {
		return t
	}
	var req transport.TokenRequest
	if err := c.Bind(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "Invalid request body.", err)
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password, req.Email)
	if err != nil {
		return fail(l, "register_error", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "User created successfully. Check your email to confirm your account.",
		"username": user.Username,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "Invalid request body.", err)
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	h.setTokenCookies(c, res)
	return c.JSON(http.StatusOK, tokenResponse(res))
}

// Logout always succeeds unless the store fails.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	err := h.Svc.Logout(ctx, mwauth.AccessToken(c), refreshToken(c))
	h.clearTokenCookies(c)
	if err != nil {
		return fail(l, "logout_failed", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logged out."})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	token := refreshToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing refresh token.")
	}

	res, err := h.Svc.Refresh(ctx, token, mwauth.AccessToken(c))
	if err != nil {
		if service.HTTPStatus(err) == http.StatusUnauthorized {
			h.clearTokenCookies(c)
		}
		return fail(l, "refresh_failed", err)
	}

	h.setTokenCookies(c, res)
	return c.JSON(http.StatusOK, tokenResponse(res))
}

func (h *AuthHTTP) ConfirmEmail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.confirm")

	if _, err := h.Confirm.Confirm(ctx, c.Param("token")); err != nil {
		return fail(l, "confirm_failed", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Your email has been verified."})
}

// ResendConfirmation answers identically for known and unknown addresses.
func (h *AuthHTTP) ResendConfirmation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.resend_confirmation")

	var req transport.ResendRequest
	if err := c.Bind(&req); err != nil {
		l.Debug("resend_bind_failed", "reason", "Invalid request body.", "error", err)
	}
	h.Confirm.Resend(ctx, req.Email)

	return c.JSON(http.StatusOK, transport.MessageResponse{
		Message: "If an unverified account uses this email, a new confirmation link has been sent.",
	})
}

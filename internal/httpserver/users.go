package httpserver

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/cookies"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type UserHTTP struct {
	Svc     *service.UserService
	Auth    *service.AuthService
	Cookies cookies.Options
}

func toUpload(fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func (h *UserHTTP) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_profile")

	u, err := h.Svc.Profile(ctx, mwauth.Username(c))
	if err != nil {
		return fail(l, "get_profile_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) PatchProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.patch_profile")

	var req transport.PatchProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_profile_failed", "Invalid request body.", err)
	}

	u, err := h.Svc.UpdateProfile(ctx, mwauth.Username(c), service.ProfileUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		return fail(l, "patch_profile_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) UploadPicture(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.upload_picture")

	fh, err := c.FormFile("picture")
	if err != nil {
		return badRequest(l, "upload_picture_failed", "Missing picture.", err)
	}

	u, err := h.Svc.SetPicture(ctx, mwauth.Username(c), toUpload(fh))
	if err != nil {
		return fail(l, "upload_picture_failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

// DeleteAccount revokes the caller's tokens before removing the account.
func (h *UserHTTP) DeleteAccount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete_account")

	if err := h.Auth.Logout(ctx, mwauth.AccessToken(c), refreshToken(c)); err != nil {
		return fail(l, "delete_account_failed", err)
	}
	if err := h.Svc.DeleteAccount(ctx, mwauth.Username(c)); err != nil {
		return fail(l, "delete_account_failed", err)
	}

	c.SetCookie(cookies.Delete(cookies.AccessName, h.Cookies))
	c.SetCookie(cookies.Delete(cookies.RefreshName, h.Cookies))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Account deleted."})
}

func (h *UserHTTP) ReportUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.report")

	var req transport.ReportUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "report_user_failed", "Invalid request body.", err)
	}

	rep, err := h.Svc.ReportUser(ctx, mwauth.Username(c), req.ReportedUser, req.Description)
	if err != nil {
		return fail(l, "report_user_failed", err)
	}
	return c.JSON(http.StatusCreated, rep)
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type AdminHTTP struct {
	Users    *service.UserService
	Products *service.ProductService
}

func (h *AdminHTTP) UserReports(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.user_reports")

	reports, err := h.Users.UserReports(ctx)
	if err != nil {
		return fail(l, "list_reports_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reported_users": reports})
}

func (h *AdminHTTP) ProductReports(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.product_reports")

	reports, err := h.Products.ProductReports(ctx)
	if err != nil {
		return fail(l, "list_reports_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reported_products": reports})
}

func (h *AdminHTTP) BanUser(c echo.Context) error {
	return h.setUserBan(c, true)
}

func (h *AdminHTTP) UnbanUser(c echo.Context) error {
	return h.setUserBan(c, false)
}

func (h *AdminHTTP) setUserBan(c echo.Context, banned bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.ban_user", "banned", banned)

	username := c.Param("username")
	if err := h.Users.SetBanned(ctx, username, banned); err != nil {
		return fail(l, "ban_user_failed", err)
	}

	msg := "User " + username + " has been unbanned."
	if banned {
		msg = "User " + username + " has been banned."
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: msg})
}

func (h *AdminHTTP) BanProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.ban_product")

	id, ok := parseProductID(c)
	if !ok {
		return badRequest(l, "ban_product_failed", "Product ID must be an integer.", nil)
	}
	if err := h.Products.Ban(ctx, id); err != nil {
		return fail(l, "ban_product_failed", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product has been banned."})
}

package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	mwauth "github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/validate"
	"github.com/Skotchmaster/marketplace/pkg/metrics"
	"github.com/Skotchmaster/marketplace/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/marketplace/pkg/middleware/logging"
)

type Deps struct {
	Logger   *slog.Logger
	Auth     *AuthHTTP
	Users    *UserHTTP
	Products *ProductHTTP
	Admin    *AdminHTTP
	Guards   *mwauth.Guards
	// Ready reports whether dependencies answer; nil means always ready.
	Ready func(ctx context.Context) error
	// CSRF enables double-submit protection when non-nil.
	CSRF *csrf.Config
	// BodyLimit caps request bodies, e.g. "10M".
	BodyLimit string
}

// New builds the echo instance with the standard middleware chain and routes.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(d.Logger))
	e.Use(metrics.Middleware())
	if d.BodyLimit != "" {
		e.Use(middleware.BodyLimit(d.BodyLimit))
	}
	if d.CSRF != nil {
		e.Use(csrf.Middleware(*d.CSRF))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)
	e.GET("/metrics", metrics.Handler())

	g := d.Guards

	user := e.Group("/api/user")
	user.POST("/register", d.Auth.Register)
	user.POST("/login", d.Auth.Login)
	user.POST("/logout", d.Auth.LogOut)
	user.POST("/refresh", d.Auth.Refresh)
	user.GET("/confirm/:token", d.Auth.ConfirmEmail)
	user.POST("/resend-confirmation", d.Auth.ResendConfirmation)

	account := user.Group("", g.RequireAuth, g.ValidUser)
	account.GET("/profile", d.Users.GetProfile)
	account.PATCH("/profile", d.Users.PatchProfile)
	account.POST("/profile/picture", d.Users.UploadPicture)
	account.DELETE("", d.Users.DeleteAccount)
	account.POST("/report", d.Users.ReportUser)

	product := e.Group("/api/product")
	product.GET("/search", d.Products.Search)
	product.GET("/sale-list", d.Products.SaleList, g.RequireAuth)
	product.GET("/:id", d.Products.GetProduct)

	owned := product.Group("", g.RequireAuth, g.ValidUser)
	owned.POST("", d.Products.CreateProduct)
	owned.PUT("/:id", d.Products.EditProduct)
	owned.DELETE("/:id", d.Products.DeleteProduct)
	owned.POST("/:id/report", d.Products.ReportProduct)

	admin := e.Group("/api/admin", g.RequireAuth, g.AdminRequired)
	admin.GET("/user-reports", d.Admin.UserReports)
	admin.GET("/product-reports", d.Admin.ProductReports)
	admin.PUT("/users/:username/ban", d.Admin.BanUser)
	admin.PUT("/users/:username/unban", d.Admin.UnbanUser)
	admin.PUT("/products/:id/ban", d.Admin.BanProduct)
}

func (d *Deps) ready(c echo.Context) error {
	if d.Ready == nil {
		return c.NoContent(http.StatusOK)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()
	if err := d.Ready(ctx); err != nil {
		d.Logger.Warn("readiness_failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	mwauth "github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type ProductHTTP struct {
	Svc *service.ProductService
}

func parseProductID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// formField returns nil when the field was not submitted at all.
func formField(c echo.Context, name string) *string {
	params, err := c.FormParams()
	if err != nil {
		return nil
	}
	vs, ok := params[name]
	if !ok || len(vs) == 0 {
		return nil
	}
	return &vs[0]
}

func productInput(c echo.Context) service.ProductInput {
	return service.ProductInput{
		Name:        formField(c, "name"),
		Price:       formField(c, "price"),
		CityName:    formField(c, "city_name"),
		Description: formField(c, "description"),
		Status:      formField(c, "status"),
		Category:    formField(c, "category"),
	}
}

func pictures(c echo.Context) []service.Upload {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	files := form.File["picture"]
	out := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		out = append(out, toUpload(fh))
	}
	return out
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	p, err := h.Svc.Create(ctx, mwauth.Username(c), productInput(c), pictures(c))
	if err != nil {
		return fail(l, "product_create_error", err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page, err := h.Svc.Search(ctx, service.SearchQuery{
		Name:          c.QueryParam("name"),
		Q:             c.QueryParam("q"),
		Status:        c.QueryParam("status"),
		Category:      c.QueryParam("category"),
		MinPrice:      c.QueryParam("min_price"),
		MaxPrice:      c.QueryParam("max_price"),
		SortCreatedAt: c.QueryParam("sort_created_at"),
		SortPrice:     c.QueryParam("sort_price"),
		Page:          util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:          util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	})
	if err != nil {
		return fail(l, "product_search_error", err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ProductHTTP) SaleList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.sale_list")

	page, err := h.Svc.SaleList(ctx, mwauth.Username(c),
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	)
	if err != nil {
		return fail(l, "sale_list_error", err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, ok := parseProductID(c)
	if !ok {
		return badRequest(l, "get_product_failed", "Product ID must be an integer.", nil)
	}
	p, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) EditProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.edit")

	id, ok := parseProductID(c)
	if !ok {
		return badRequest(l, "product_edit_error", "Product ID must be an integer.", nil)
	}
	p, err := h.Svc.Edit(ctx, mwauth.Username(c), id, productInput(c), pictures(c))
	if err != nil {
		return fail(l, "product_edit_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, ok := parseProductID(c)
	if !ok {
		return badRequest(l, "product_delete_error", "Product ID must be an integer.", nil)
	}
	if err := h.Svc.Delete(ctx, mwauth.Username(c), id); err != nil {
		return fail(l, "product_delete_error", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product deleted."})
}

func (h *ProductHTTP) ReportProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.report")

	id, ok := parseProductID(c)
	if !ok {
		return badRequest(l, "report_product_failed", "Product ID must be an integer.", nil)
	}
	var req transport.ReportProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "report_product_failed", "Invalid request body.", err)
	}

	rep, err := h.Svc.Report(ctx, mwauth.Username(c), id, req.Description)
	if err != nil {
		return fail(l, "report_product_failed", err)
	}
	return c.JSON(http.StatusCreated, rep)
}

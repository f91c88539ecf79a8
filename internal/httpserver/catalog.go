package httpserver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func pageParams(c echo.Context) (page, offset, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit = util.Calculate(page, size)
	return page, offset, limit
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.products")

	var f repo.ProductFilter
	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, l, "get_products_error", "invalid category_id")
		}
		f.CategoryID = &id
	}
	f.Query = strings.TrimSpace(c.QueryParam("q"))

	page, offset, limit := pageParams(c)
	total, products, err := h.Svc.ListProducts(ctx, f, offset, limit)
	if err != nil {
		return fail(c, l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, transport.Page[models.Product]{
		Items: products,
		Meta:  util.Meta(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search.products")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest(c, l, "search_error", "q required")
	}

	page, offset, limit := pageParams(c)
	total, products, err := h.Svc.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return fail(c, l, "search_error", err)
	}
	return c.JSON(http.StatusOK, transport.Page[models.Product]{
		Items: products,
		Meta:  util.Meta(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.product")

	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, l, "get_product_error", "invalid product id")
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(c, l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.categories")

	categories, err := h.Svc.Categories(ctx)
	if err != nil {
		return fail(c, l, "get_categories_error", err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create.category")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_category_error", "invalid body")
	}

	category, err := h.Svc.CreateCategory(ctx, req.Name, req.Description)
	if err != nil {
		return fail(c, l, "create_category_error", err)
	}
	l.Info("category created", "category_id", category.ID)
	return c.JSON(http.StatusCreated, category)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create.product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_product_error", "invalid body")
	}

	product, err := h.Svc.CreateProduct(ctx, service.NewProduct{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Inventory:   req.Inventory,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return fail(c, l, "create_product_error", err)
	}
	l.Info("product created", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "patch.product")

	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, l, "patch_product_error", "invalid product id")
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "patch_product_error", "invalid body")
	}

	product, err := h.Svc.PatchProduct(ctx, id, repo.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return fail(c, l, "patch_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.product")

	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, l, "delete_product_error", "invalid product id")
	}

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(c, l, "delete_product_error", err)
	}
	l.Info("product deleted", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) AdjustInventory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "adjust.inventory")

	id, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, l, "adjust_inventory_error", "invalid product id")
	}
	var req transport.AdjustInventoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "adjust_inventory_error", "invalid body")
	}

	inventory, err := h.Svc.AdjustInventory(ctx, id, req.Amount, req.Direction)
	if err != nil {
		return fail(c, l, "adjust_inventory_error", err)
	}
	return c.JSON(http.StatusOK, transport.InventoryResponse{ProductID: id, Inventory: inventory})
}

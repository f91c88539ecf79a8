package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

// cart resolves the caller's cart and keeps the cartId cookie pointing at it.
func (h *CartHTTP) cart(c echo.Context, l *slog.Logger) (uuid.UUID, error) {
	fromCookie := cookieCartID(c)
	id, err := h.Svc.Resolve(c.Request().Context(), userID(c), fromCookie)
	if err != nil {
		return uuid.Nil, err
	}
	if fromCookie == nil || *fromCookie != id {
		l.Debug("cart_cookie_set", "cart_id", id)
		setCartCookie(c, id)
	}
	return id, nil
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	cartID, err := h.cart(c, l)
	if err != nil {
		return fail(c, l, "get_cart_error", err)
	}

	view, err := h.Svc.List(ctx, cartID)
	if err != nil {
		return fail(c, l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_to_cart_error", "invalid body")
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	cartID, err := h.cart(c, l)
	if err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}

	line, err := h.Svc.AddItem(ctx, cartID, req.ProductID, qty)
	if err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}

	l.Info("item added to cart", "cart_id", cartID, "product_id", req.ProductID, "quantity", qty)
	return c.JSON(http.StatusCreated, line)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "set.cart.quantity")

	lineID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, l, "set_quantity_error", "invalid line id")
	}
	var req transport.SetQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "set_quantity_error", "invalid body")
	}
	if req.Quantity == nil {
		return badRequest(c, l, "set_quantity_error", "quantity required")
	}

	cartID, err := h.cart(c, l)
	if err != nil {
		return fail(c, l, "set_quantity_error", err)
	}

	line, removed, err := h.Svc.SetQuantity(ctx, cartID, lineID, *req.Quantity)
	if err != nil {
		return fail(c, l, "set_quantity_error", err)
	}
	return c.JSON(http.StatusOK, transport.CartLineResponse{Line: line, Removed: removed})
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.cart.item")

	lineID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, l, "remove_item_error", "invalid line id")
	}

	cartID, err := h.cart(c, l)
	if err != nil {
		return fail(c, l, "remove_item_error", err)
	}

	if err := h.Svc.RemoveItem(ctx, cartID, lineID); err != nil {
		return fail(c, l, "remove_item_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "clear.cart")

	cartID, err := h.cart(c, l)
	if err != nil {
		return fail(c, l, "clear_cart_error", err)
	}

	if err := h.Svc.Clear(ctx, cartID); err != nil {
		return fail(c, l, "clear_cart_error", err)
	}
	l.Info("cart cleared", "cart_id", cartID)
	return c.NoContent(http.StatusNoContent)
}

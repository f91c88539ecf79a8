package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/util"
)

type OrderHTTP struct {
	Svc   *service.OrderService
	Carts *CartHTTP
}

func (h *OrderHTTP) checkoutResponse(c echo.Context, status int, out *service.Checkout, err error) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	if errors.Is(err, domain.ErrPaymentGateway) && out != nil {
		l.Warn("payment_request_error", "status", http.StatusBadGateway, "order_id", out.Order.ID, "error", err)
		return c.JSON(http.StatusBadGateway, transport.PaymentFailedResponse{
			Error: "payment processor unavailable, retry payment for this order",
			Order: out.Order,
		})
	}
	if err != nil {
		return fail(c, l, "checkout_error", err)
	}
	return c.JSON(status, out)
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "create.order")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_order_error", "invalid body")
	}

	cartID, err := h.Carts.cart(c, l)
	if err != nil {
		return fail(c, l, "create_order_error", err)
	}

	out, err := h.Svc.CreateOrder(ctx, cartID, service.CheckoutRequest{
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
	}, userID(c))
	if err == nil {
		l.Info("order created", "order_id", out.Order.ID, "total", out.Order.Total.StringFixed(2))
	}
	return h.checkoutResponse(c, http.StatusCreated, out, err)
}

func (h *OrderHTTP) RetryPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "retry.payment")

	orderID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, l, "retry_payment_error", "invalid order id")
	}

	out, err := h.Svc.RetryPayment(ctx, orderID, userID(c), isAdmin(c))
	return h.checkoutResponse(c, http.StatusOK, out, err)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.order")

	orderID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, l, "get_order_error", "invalid order id")
	}

	order, err := h.Svc.GetOrder(ctx, orderID, userID(c), isAdmin(c))
	if err != nil {
		return fail(c, l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.orders")

	uid := userID(c)
	if uid == nil {
		return fail(c, l, "list_orders_error", domain.ErrUnauthorized)
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListOrders(ctx, *uid, isAdmin(c), offset, limit)
	if err != nil {
		return fail(c, l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.Page[models.Order]{
		Items: orders,
		Meta:  util.Meta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.order.status")

	orderID, ok := paramUUID(c, "id")
	if !ok {
		return badRequest(c, l, "update_status_error", "invalid order id")
	}
	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_status_error", "invalid body")
	}

	order, err := h.Svc.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		return fail(c, l, "update_status_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

package httpserver

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const maxWebhookBody = 64 << 10

type WebhookHTTP struct {
	Orders *service.OrderService
	Secret string
}

// Stripe receives processor notifications. A non-2xx answer makes the
// processor redeliver, so only signature problems are rejected as 400.
// Without an endpoint secret nothing can be verified and the endpoint is
// unavailable.
func (h *WebhookHTTP) Stripe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "webhook.stripe")

	if h.Secret == "" {
		l.Warn("webhook_disabled", "status", http.StatusServiceUnavailable)
		return c.JSON(http.StatusServiceUnavailable, transport.ErrorResponse{Error: "webhooks are not configured"})
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return badRequest(c, l, "webhook_error", "unreadable body")
	}

	ev, err := payment.ParseWebhook(payload, c.Request().Header.Get("Stripe-Signature"), h.Secret)
	if err != nil {
		return badRequest(c, l, "webhook_error", err.Error())
	}

	if err := h.Orders.HandlePaymentEvent(ctx, ev); err != nil {
		return fail(c, l, "webhook_error", err)
	}
	return c.NoContent(http.StatusOK)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type OrderService struct {
	Repo    *repo.GormRepo
	Gateway payment.Gateway
	Events  mykafka.Publisher
}

type CheckoutRequest struct {
	CustomerEmail   string
	CustomerName    string
	ShippingAddress models.ShippingAddress
	ShippingMethod  string
}

// Checkout is the result of placing an order. Payment is nil when the
// gateway could not issue a handle.
type Checkout struct {
	Order   *models.Order   `json:"order"`
	Payment *payment.Intent `json:"payment,omitempty"`
}

type orderEvent struct {
	OrderID      uuid.UUID           `json:"order_id"`
	UserID       *uuid.UUID          `json:"user_id,omitempty"`
	Status       domain.OrderStatus  `json:"status"`
	PaymentState domain.PaymentState `json:"payment_state"`
	Total        decimal.Decimal     `json:"total"`
}

func newOrderEvent(o *models.Order) orderEvent {
	return orderEvent{OrderID: o.ID, UserID: o.UserID, Status: o.Status, PaymentState: o.PaymentState, Total: o.Total}
}

func (r CheckoutRequest) validate() (domain.ShippingMethod, error) {
	if strings.TrimSpace(r.CustomerName) == "" {
		return "", fmt.Errorf("customer name is required: %w", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(r.CustomerEmail)); err != nil {
		return "", fmt.Errorf("customer email is invalid: %w", domain.ErrValidation)
	}
	if !r.ShippingAddress.Complete() {
		return "", fmt.Errorf("shipping address is incomplete: %w", domain.ErrValidation)
	}
	return domain.ParseShippingMethod(r.ShippingMethod)
}

// CreateOrder turns the cart into a PENDING order and asks the gateway for a
// payment handle. The order survives a gateway failure: it is returned with
// payment state FAILED together with an error wrapping ErrPaymentGateway,
// and can be retried with RetryPayment.
func (s *OrderService) CreateOrder(ctx context.Context, cartID uuid.UUID, req CheckoutRequest, userID *uuid.UUID) (out *Checkout, err error) {
	ctx, span := tracer.Start(ctx, "order.create", trace.WithAttributes(attribute.String("cart.id", cartID.String())))
	defer func() { finish(span, err) }()

	l := logging.FromContext(ctx).With("svc", "order.create", "cart_id", cartID)

	method, err := req.validate()
	if err != nil {
		return nil, err
	}

	build := func(lines []models.CartLine) (*models.Order, error) {
		subtotal := decimal.Zero
		units := 0
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			units += line.Quantity
			items = append(items, models.OrderItem{
				ProductID:   line.ProductID,
				ProductName: line.Product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
			})
		}
		shipping, err := domain.ShippingCost(method, units)
		if err != nil {
			return nil, err
		}
		return &models.Order{
			UserID:          userID,
			Status:          domain.StatusPending,
			PaymentState:    domain.PaymentNone,
			CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
			CustomerName:    strings.TrimSpace(req.CustomerName),
			ShippingAddress: req.ShippingAddress,
			ShippingMethod:  method,
			ShippingCost:    shipping,
			Subtotal:        subtotal,
			Total:           subtotal.Add(shipping),
			Items:           items,
		}, nil
	}

	order, err := s.Repo.CheckoutCart(ctx, cartID, build)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	l.Info("order_created", "order_id", order.ID, "total", order.Total.StringFixed(2), "items", len(order.Items))
	publish(ctx, s.Events, mykafka.TopicOrder, order.ID.String(), mykafka.OrderCreated, newOrderEvent(order))

	return s.requestPayment(ctx, order)
}

// RetryPayment requests a new payment handle for an order whose previous
// request failed. The order itself is not recreated.
func (s *OrderService) RetryPayment(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID, admin bool) (out *Checkout, err error) {
	ctx, span := tracer.Start(ctx, "order.retry_payment", trace.WithAttributes(attribute.String("order.id", orderID.String())))
	defer func() { finish(span, err) }()

	order, err := s.GetOrder(ctx, orderID, userID, admin)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.StatusPending || order.PaymentState != domain.PaymentFailed {
		return nil, fmt.Errorf("order %s is %s with payment %s: %w", order.ID, order.Status, order.PaymentState, domain.ErrConflict)
	}
	return s.requestPayment(ctx, order)
}

func (s *OrderService) requestPayment(ctx context.Context, order *models.Order) (*Checkout, error) {
	l := logging.FromContext(ctx).With("svc", "order.payment", "order_id", order.ID)

	intent, gwErr := s.Gateway.CreatePaymentIntent(ctx, payment.IntentRequest{
		OrderID:         order.ID,
		AmountMinor:     domain.MinorUnits(order.Total),
		CustomerEmail:   order.CustomerEmail,
		ShippingAddress: order.ShippingAddress,
		IdempotencyKey:  fmt.Sprintf("order-%s-attempt-%d", order.ID, order.PaymentAttempts+1),
	})

	intentID := ""
	if gwErr == nil {
		intentID = intent.ID
	}
	updated, err := s.Repo.RecordPaymentRequest(ctx, order.ID, intentID)
	if err != nil {
		l.Error("payment_record_error", "status", 500, "error", err)
		return nil, err
	}
	publish(ctx, s.Events, mykafka.TopicOrder, updated.ID.String(), mykafka.OrderPayment, newOrderEvent(updated))

	if gwErr != nil {
		l.Warn("payment_request_failed", "status", 502, "attempt", updated.PaymentAttempts, "error", gwErr)
		return &Checkout{Order: updated}, fmt.Errorf("%w: %v", domain.ErrPaymentGateway, gwErr)
	}
	return &Checkout{Order: updated, Payment: intent}, nil
}

// GetOrder returns an order visible to the caller. Orders of other users
// are reported as missing; guest orders are visible to admins only.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID, admin bool) (*models.Order, error) {
	order, err := s.Repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if admin {
		return order, nil
	}
	if userID == nil || order.UserID == nil || *order.UserID != *userID {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return order, nil
}

// ListOrders pages through the user's orders; admin lists every order.
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, admin bool, offset, limit int) (int64, []models.Order, error) {
	var filter *uuid.UUID
	if !admin {
		filter = &userID
	}
	return s.Repo.ListOrders(ctx, filter, offset, limit)
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (order *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "order.update_status", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("status", status),
	))
	defer func() { finish(span, err) }()

	to, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	order, err = s.Repo.UpdateOrderStatus(ctx, orderID, to)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("order_status_changed", "order_id", orderID, "status", to)
	publish(ctx, s.Events, mykafka.TopicOrder, order.ID.String(), mykafka.OrderStatus, newOrderEvent(order))
	return order, nil
}

// HandlePaymentEvent applies a verified processor notification. Event types
// other than payment success and failure are ignored, as are intents that
// belong to no order.
func (s *OrderService) HandlePaymentEvent(ctx context.Context, ev *payment.WebhookEvent) (err error) {
	ctx, span := tracer.Start(ctx, "order.payment_event", trace.WithAttributes(
		attribute.String("event.type", ev.Type),
		attribute.String("payment.intent_id", ev.IntentID),
	))
	defer func() { finish(span, err) }()

	l := logging.FromContext(ctx).With("svc", "order.webhook", "event_id", ev.ID, "type", ev.Type)

	var succeeded bool
	switch ev.Type {
	case payment.EventPaymentSucceeded:
		succeeded = true
	case payment.EventPaymentFailed:
	default:
		l.Debug("webhook_ignored")
		return nil
	}
	if ev.IntentID == "" {
		return fmt.Errorf("%w: %w", payment.ErrMissingIntent, domain.ErrValidation)
	}

	order, err := s.Repo.ApplyPaymentResult(ctx, ev.IntentID, succeeded)
	if errors.Is(err, domain.ErrNotFound) {
		l.Warn("webhook_unknown_intent", "intent_id", ev.IntentID, "order_id", ev.OrderID)
		return nil
	}
	if err != nil {
		return err
	}
	l.Info("payment_applied", "order_id", order.ID, "payment_state", order.PaymentState, "status", order.Status)
	publish(ctx, s.Events, mykafka.TopicOrder, order.ID.String(), mykafka.OrderPayment, newOrderEvent(order))
	return nil
}

// Package payment requests payment handles for orders and interprets the
// processor's asynchronous notifications.
package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

var (
	ErrUnavailable      = errors.New("payment gateway not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNoWebhookSecret  = errors.New("webhook secret not configured")
	ErrMissingIntent    = errors.New("payment intent id missing")
)

type IntentRequest struct {
	OrderID         uuid.UUID
	AmountMinor     int64
	CustomerEmail   string
	ShippingAddress models.ShippingAddress
	// IdempotencyKey makes a retried call for the same attempt return the
	// intent created by the first one.
	IdempotencyKey string
}

// Intent is the handle a client uses to complete payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

// Unavailable is used when no processor credentials are configured. Orders
// can still be placed; their payment request fails and may be retried once
// a processor is configured.
type Unavailable struct{}

func (Unavailable) CreatePaymentIntent(context.Context, IntentRequest) (*Intent, error) {
	return nil, ErrUnavailable
}

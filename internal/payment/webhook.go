package payment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
	OrderID  string
}

// ParseWebhook verifies the Stripe-Signature header against the endpoint
// secret and extracts the payment intent the event refers to. An empty
// secret verifies nothing, so it is refused outright.
func ParseWebhook(payload []byte, signature, secret string) (*WebhookEvent, error) {
	if secret == "" {
		return nil, ErrNoWebhookSecret
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: ev.ID, Type: string(ev.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || ev.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	if pi.ID == "" {
		return nil, ErrMissingIntent
	}
	out.IntentID = pi.ID
	out.OrderID = pi.Metadata["orderId"]
	return out, nil
}

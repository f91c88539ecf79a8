package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Skotchmaster/storefront/internal/models"
)

type capturedRequest struct {
	path    string
	form    url.Values
	idemKey string
}

func newStripeStub(t *testing.T, status int) (*StripeGateway, *capturedRequest) {
	t.Helper()

	var mu sync.Mutex
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		mu.Lock()
		got.path = r.URL.Path
		got.form = r.PostForm
		got.idemKey = r.Header.Get("Idempotency-Key")
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"processor down"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"pi_test_1","object":"payment_intent","client_secret":"pi_test_1_secret_abc","amount":5999,"currency":"usd"}`))
	}))
	t.Cleanup(srv.Close)

	retries := int64(0)
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: &retries,
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	gw := NewStripeGateway("sk_test_123", "usd", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return gw, got
}

func TestStripeGateway_CreatePaymentIntent(t *testing.T) {
	gw, got := newStripeStub(t, http.StatusOK)
	orderID := uuid.New()
	addr := models.ShippingAddress{Street: "1 Main St", City: "Springfield", State: "IL", PostalCode: "62701", Country: "US"}

	intent, err := gw.CreatePaymentIntent(context.Background(), IntentRequest{
		OrderID:         orderID,
		AmountMinor:     5999,
		CustomerEmail:   "buyer@shop.test",
		ShippingAddress: addr,
		IdempotencyKey:  "order-" + orderID.String() + "-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1", intent.ID)
	assert.Equal(t, "pi_test_1_secret_abc", intent.ClientSecret)

	assert.Equal(t, "/v1/payment_intents", got.path)
	assert.Equal(t, "5999", got.form.Get("amount"))
	assert.Equal(t, "usd", got.form.Get("currency"))
	assert.Equal(t, "true", got.form.Get("automatic_payment_methods[enabled]"))
	assert.Equal(t, orderID.String(), got.form.Get("metadata[orderId]"))
	assert.Equal(t, "order-"+orderID.String()+"-1", got.idemKey)

	var decoded models.ShippingAddress
	require.NoError(t, json.Unmarshal([]byte(got.form.Get("metadata[shippingAddress]")), &decoded))
	assert.Equal(t, addr, decoded)
}

func TestStripeGateway_ProcessorError(t *testing.T) {
	gw, _ := newStripeStub(t, http.StatusInternalServerError)

	intent, err := gw.CreatePaymentIntent(context.Background(), IntentRequest{OrderID: uuid.New(), AmountMinor: 100})
	require.Error(t, err)
	assert.Nil(t, intent)
}

func TestUnavailable(t *testing.T) {
	t.Parallel()

	_, err := Unavailable{}.CreatePaymentIntent(context.Background(), IntentRequest{})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func signedEvent(t *testing.T, secret, eventType, intentID, orderID string) ([]byte, string) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":          "evt_1",
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data": map[string]any{
			"object": map[string]any{
				"id":       intentID,
				"object":   "payment_intent",
				"metadata": map[string]string{"orderId": orderID},
			},
		},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})
	return payload, signed.Header
}

func TestParseWebhook(t *testing.T) {
	t.Parallel()

	const secret = "whsec_test"
	orderID := uuid.NewString()

	payload, header := signedEvent(t, secret, EventPaymentSucceeded, "pi_9", orderID)

	ev, err := ParseWebhook(payload, header, secret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventPaymentSucceeded, ev.Type)
	assert.Equal(t, "pi_9", ev.IntentID)
	assert.Equal(t, orderID, ev.OrderID)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	t.Parallel()

	payload, header := signedEvent(t, "whsec_other", EventPaymentFailed, "pi_9", uuid.NewString())

	_, err := ParseWebhook(payload, header, "whsec_test")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = ParseWebhook(payload, "", "whsec_test")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseWebhook_RequiresSecretAndIntent(t *testing.T) {
	t.Parallel()

	payload, header := signedEvent(t, "", EventPaymentSucceeded, "", uuid.NewString())
	_, err := ParseWebhook(payload, header, "")
	assert.ErrorIs(t, err, ErrNoWebhookSecret)

	const secret = "whsec_test"
	payload, header = signedEvent(t, secret, EventPaymentSucceeded, "", uuid.NewString())
	_, err = ParseWebhook(payload, header, secret)
	assert.ErrorIs(t, err, ErrMissingIntent)
}

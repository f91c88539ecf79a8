package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

const webhookSecret = "whsec_http_test"

type stubGateway struct {
	fail atomic.Bool
}

func (g *stubGateway) CreatePaymentIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	if g.fail.Load() {
		return nil, errors.New("processor timeout")
	}
	id := "pi_" + req.OrderID.String()
	return &payment.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

type harness struct {
	e      *echo.Echo
	db     *gorm.DB
	gw     *stubGateway
	auth   *service.AuthService
	orders *service.OrderService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	r := &repo.GormRepo{DB: db}
	gw := &stubGateway{}
	events := mykafka.NopPublisher{}

	auth := &service.AuthService{
		Repo:          r,
		AccessSecret:  []byte("access-secret-access-secret-0123"),
		RefreshSecret: []byte("refresh-secret-refresh-secret-01"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	}
	orders := &service.OrderService{Repo: r, Gateway: gw, Events: events}
	carts := &CartHTTP{Svc: &service.CartService{Repo: r, Events: events}}

	sqlDB, err := db.DB()
	require.NoError(t, err)

	e := echo.New()
	Register(e, &Deps{
		CartHandler:    carts,
		OrderHandler:   &OrderHTTP{Svc: orders, Carts: carts},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: events}},
		AuthHandler:    &AuthHTTP{Svc: auth},
		WebhookHandler: &WebhookHTTP{Orders: orders, Secret: webhookSecret},
		HealthHandler:  &HealthHTTP{DB: sqlDB},
		JWTSecret:      auth.AccessSecret,
	})
	return &harness{e: e, db: db, gw: gw, auth: auth, orders: orders}
}

// client is a browser stand-in that keeps the cookies the server sets.
type client struct {
	t       *testing.T
	h       *harness
	cookies map[string]string
}

func (h *harness) client(t *testing.T) *client {
	return &client{t: t, h: h, cookies: map[string]string{}}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	rec := httptest.NewRecorder()
	c.h.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck.Value
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (c *client) login(email, password string) {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (h *harness) registerUser(t *testing.T, email string) *client {
	t.Helper()
	c := h.client(t)
	rec := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": email, "password": "correct-horse", "name": "Shopper",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c.login(email, "correct-horse")
	return c
}

func (h *harness) adminClient(t *testing.T) *client {
	t.Helper()
	_, err := h.auth.EnsureAdmin(context.Background(), "admin@shop.test", "admin-password")
	require.NoError(t, err)
	c := h.client(t)
	c.login("admin@shop.test", "admin-password")
	return c
}

type lineBody struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

func (c *client) addToCart(productID uuid.UUID, qty int) lineBody {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/cart", map[string]any{"product_id": productID, "quantity": qty})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[lineBody](c.t, rec)
}

func checkoutBody() map[string]any {
	address := map[string]string{
		"street":      "1 Main St",
		"city":        "Springfield",
		"state":       "IL",
		"postal_code": "62701",
		"country":     "US",
	}
	return map[string]any{
		"customer_email":   "guest@shop.test",
		"customer_name":    "Guest Shopper",
		"shipping_method":  "standard",
		"shipping_address": address,
	}
}

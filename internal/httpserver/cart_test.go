package httpserver

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/testutil"
)

type cartBody struct {
	CartID    uuid.UUID `json:"cart_id"`
	Subtotal  string    `json:"subtotal"`
	ItemCount int       `json:"item_count"`
	Items     []struct {
		ID        uuid.UUID `json:"id"`
		ProductID uuid.UUID `json:"product_id"`
		Quantity  int       `json:"quantity"`
	} `json:"items"`
}

func TestGuestCartLifecycle(t *testing.T) {
	h := newHarness(t)
	p := testutil.NewProduct(t, h.db, "mount", "12.50", 5)
	c := h.client(t)

	line := c.addToCart(p.ID, 2)
	require.NotEmpty(t, c.cookies[cartCookie], "guest cart cookie is issued")
	assert.Equal(t, 3, testutil.Inventory(t, h.db, p.ID))

	// adding again merges into the same line
	merged := c.addToCart(p.ID, 1)
	assert.Equal(t, line.ID, merged.ID)
	assert.Equal(t, 3, merged.Quantity)

	rec := c.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[cartBody](t, rec)
	assert.Equal(t, c.cookies[cartCookie], view.CartID.String())
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, decimal.RequireFromString("37.50").Equal(decimal.RequireFromString(view.Subtotal)), view.Subtotal)

	rec = c.do(http.MethodPatch, "/api/v1/cart/items/"+line.ID.String(), map[string]int{"quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 4, testutil.Inventory(t, h.db, p.ID))

	rec = c.do(http.MethodPatch, "/api/v1/cart/items/"+line.ID.String(), map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"removed":true`)
	assert.Equal(t, 5, testutil.Inventory(t, h.db, p.ID))

	rec = c.do(http.MethodDelete, "/api/v1/cart/items/"+line.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "second remove reports the missing line")
	assert.Equal(t, 5, testutil.Inventory(t, h.db, p.ID))
}

func TestAddToCart_Errors(t *testing.T) {
	h := newHarness(t)
	p := testutil.NewProduct(t, h.db, "mount", "10.00", 1)
	c := h.client(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "over inventory", body: map[string]any{"product_id": p.ID, "quantity": 2}, want: http.StatusBadRequest},
		{name: "negative", body: map[string]any{"product_id": p.ID, "quantity": -1}, want: http.StatusBadRequest},
		{name: "unknown product", body: map[string]any{"product_id": uuid.New(), "quantity": 1}, want: http.StatusNotFound},
		{name: "malformed", body: "not an object", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(http.MethodPost, "/api/v1/cart", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
	assert.Equal(t, 1, testutil.Inventory(t, h.db, p.ID))
}

func TestAddToCart_DefaultsToOne(t *testing.T) {
	h := newHarness(t)
	p := testutil.NewProduct(t, h.db, "mount", "10.00", 3)
	c := h.client(t)

	rec := c.do(http.MethodPost, "/api/v1/cart", map[string]any{"product_id": p.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, decode[lineBody](t, rec).Quantity)
}

func TestClearCart(t *testing.T) {
	h := newHarness(t)
	a := testutil.NewProduct(t, h.db, "a", "1.00", 4)
	b := testutil.NewProduct(t, h.db, "b", "2.00", 4)
	c := h.client(t)

	c.addToCart(a.ID, 2)
	c.addToCart(b.ID, 3)

	rec := c.do(http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 4, testutil.Inventory(t, h.db, a.ID))
	assert.Equal(t, 4, testutil.Inventory(t, h.db, b.ID))

	view := decode[cartBody](t, c.do(http.MethodGet, "/api/v1/cart", nil))
	assert.Empty(t, view.Items)
}

func TestCartsAreIsolated(t *testing.T) {
	h := newHarness(t)
	p := testutil.NewProduct(t, h.db, "mount", "10.00", 5)

	alice := h.client(t)
	bob := h.client(t)
	line := alice.addToCart(p.ID, 1)

	rec := bob.do(http.MethodDelete, "/api/v1/cart/items/"+line.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 4, testutil.Inventory(t, h.db, p.ID))
}

func TestGuestCartIsClaimedOnLogin(t *testing.T) {
	h := newHarness(t)
	p := testutil.NewProduct(t, h.db, "mount", "10.00", 5)

	c := h.client(t)
	c.addToCart(p.ID, 2)
	guestCart := c.cookies[cartCookie]

	rec := c.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "claim@shop.test", "password": "correct-horse", "name": "Claimer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	c.login("claim@shop.test", "correct-horse")

	view := decode[cartBody](t, c.do(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, guestCart, view.CartID.String())
	assert.Equal(t, 2, view.ItemCount)
}

package repo_test

import (
	"context"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

func simpleBuilder(lines []models.CartLine) (*models.Order, error) {
	o := &models.Order{
		Status:         domain.StatusPending,
		PaymentState:   domain.PaymentNone,
		CustomerEmail:  "buyer@shop.test",
		CustomerName:   "Buyer",
		ShippingMethod: domain.ShippingStandard,
		ShippingCost:   decimal.Zero,
		Subtotal:       decimal.Zero,
	}
	for _, l := range lines {
		o.Items = append(o.Items, models.OrderItem{
			ProductID:   l.ProductID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
		o.Subtotal = o.Subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	o.Total = o.Subtotal
	return o, nil
}

func TestCheckoutCart_MovesLinesIntoOrder(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := testutil.NewProduct(t, r.DB, "mount", "12.50", 10)
	cart := testutil.NewCart(t, r.DB, nil)

	_, err := r.AddItem(ctx, cart.ID, p.ID, 4)
	require.NoError(t, err)

	order, err := r.CheckoutCart(ctx, cart.ID, simpleBuilder)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "mount", order.Items[0].ProductName)
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("50")))

	assert.Equal(t, 0, testutil.CartQuantity(t, r.DB, p.ID))
	assert.Equal(t, 6, testutil.Inventory(t, r.DB, p.ID), "checkout must not restore inventory")
	assert.Equal(t, 4, testutil.OrderedQuantity(t, r.DB, p.ID))

	stored, err := r.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Len(t, stored.Items, 1)
}

func TestCheckoutCart_EmptyCart(t *testing.T) {
	r := newRepo(t)
	cart := testutil.NewCart(t, r.DB, nil)

	_, err := r.CheckoutCart(context.Background(), cart.ID, simpleBuilder)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckoutCart_OrderInsertFailureKeepsCart(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := testutil.NewProduct(t, r.DB, "mount", "10.00", 3)
	cart := testutil.NewCart(t, r.DB, nil)
	_, err := r.AddItem(ctx, cart.ID, p.ID, 2)
	require.NoError(t, err)

	testutil.FailCreatesOn(t, r.DB, "orders", assert.AnError)

	_, err = r.CheckoutCart(ctx, cart.ID, simpleBuilder)
	require.Error(t, err)
	assert.Equal(t, 2, testutil.CartQuantity(t, r.DB, p.ID))
	assert.Equal(t, 1, testutil.Inventory(t, r.DB, p.ID))
}

func TestUpdateOrderStatus_CancelRestocks(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := testutil.NewProduct(t, r.DB, "mount", "10.00", 5)
	cart := testutil.NewCart(t, r.DB, nil)
	_, err := r.AddItem(ctx, cart.ID, p.ID, 3)
	require.NoError(t, err)
	order, err := r.CheckoutCart(ctx, cart.ID, simpleBuilder)
	require.NoError(t, err)

	_, err = r.UpdateOrderStatus(ctx, order.ID, domain.StatusCompleted)
	require.ErrorIs(t, err, domain.ErrConflict)

	updated, err := r.UpdateOrderStatus(ctx, order.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)
	assert.Equal(t, 5, testutil.Inventory(t, r.DB, p.ID))

	again, err := r.UpdateOrderStatus(ctx, order.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, again.Status)
	assert.Equal(t, 5, testutil.Inventory(t, r.DB, p.ID), "repeating cancel must not restock twice")
}

func TestUpdateOrderStatus_CancelRestocksInProductOrder(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	cart := testutil.NewCart(t, r.DB, nil)
	for _, p := range descendingProducts(t, r, 5) {
		_, err := r.AddItem(ctx, cart.ID, p.ID, 2)
		require.NoError(t, err)
	}
	order, err := r.CheckoutCart(ctx, cart.ID, simpleBuilder)
	require.NoError(t, err)

	writes := testutil.ProductWrites(t, r.DB)
	_, err = r.UpdateOrderStatus(ctx, order.ID, domain.StatusCancelled)
	require.NoError(t, err)

	got := writes()
	require.Len(t, got, 5)
	assert.True(t, slices.IsSortedFunc(got, byteOrder), "restock must follow product id order: %v", got)
}

func TestUpdateOrderStatus_CompletedCancelDoesNotRestock(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := testutil.NewProduct(t, r.DB, "mount", "10.00", 5)
	cart := testutil.NewCart(t, r.DB, nil)
	_, err := r.AddItem(ctx, cart.ID, p.ID, 2)
	require.NoError(t, err)
	order, err := r.CheckoutCart(ctx, cart.ID, simpleBuilder)
	require.NoError(t, err)

	for _, st := range []domain.OrderStatus{domain.StatusProcessing, domain.StatusCompleted, domain.StatusCancelled} {
		_, err = r.UpdateOrderStatus(ctx, order.ID, st)
		require.NoError(t, err, st)
	}
	assert.Equal(t, 3, testutil.Inventory(t, r.DB, p.ID))
}

func TestUpdateOrderStatus_UnknownOrder(t *testing.T) {
	r := newRepo(t)
	_, err := r.UpdateOrderStatus(context.Background(), uuid.New(), domain.StatusProcessing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaymentLifecycle(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := testutil.NewProduct(t, r.DB, "mount", "10.00", 5)
	cart := testutil.NewCart(t, r.DB, nil)
	_, err := r.AddItem(ctx, cart.ID, p.ID, 1)
	require.NoError(t, err)
	order, err := r.CheckoutCart(ctx, cart.ID, simpleBuilder)
	require.NoError(t, err)

	failed, err := r.RecordPaymentRequest(ctx, order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, failed.PaymentState)
	assert.Equal(t, 1, failed.PaymentAttempts)
	assert.Equal(t, domain.StatusPending, failed.Status)

	requested, err := r.RecordPaymentRequest(ctx, order.ID, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRequested, requested.PaymentState)
	assert.Equal(t, "pi_123", requested.PaymentIntentID)
	assert.Equal(t, 2, requested.PaymentAttempts)

	paid, err := r.ApplyPaymentResult(ctx, "pi_123", true)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, paid.PaymentState)
	assert.Equal(t, domain.StatusProcessing, paid.Status)

	late, err := r.ApplyPaymentResult(ctx, "pi_123", false)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, late.PaymentState)

	_, err = r.ApplyPaymentResult(ctx, "pi_unknown", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.RecordPaymentRequest(ctx, order.ID, "pi_456")
	assert.ErrorIs(t, err, domain.ErrNotFound, "only pending orders accept payment requests")
}

func TestApplyPaymentResult_EmptyIntentNeverMatches(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := testutil.NewProduct(t, r.DB, "mount", "10.00", 5)
	cart := testutil.NewCart(t, r.DB, nil)
	_, err := r.AddItem(ctx, cart.ID, p.ID, 1)
	require.NoError(t, err)
	order, err := r.CheckoutCart(ctx, cart.ID, simpleBuilder)
	require.NoError(t, err)
	_, err = r.RecordPaymentRequest(ctx, order.ID, "")
	require.NoError(t, err)

	_, err = r.ApplyPaymentResult(ctx, "", true)
	require.ErrorIs(t, err, domain.ErrValidation)

	stored, err := r.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Equal(t, domain.PaymentFailed, stored.PaymentState)
}

func TestListOrders_FiltersByUser(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := testutil.NewProduct(t, r.DB, "mount", "10.00", 10)
	alice := uuid.New()

	for _, owner := range []*uuid.UUID{&alice, nil, &alice} {
		cart := testutil.NewCart(t, r.DB, nil)
		_, err := r.AddItem(ctx, cart.ID, p.ID, 1)
		require.NoError(t, err)
		owner := owner
		_, err = r.CheckoutCart(ctx, cart.ID, func(lines []models.CartLine) (*models.Order, error) {
			o, err := simpleBuilder(lines)
			o.UserID = owner
			return o, err
		})
		require.NoError(t, err)
	}

	total, orders, err := r.ListOrders(ctx, &alice, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, orders, 2)

	total, _, err = r.ListOrders(ctx, nil, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

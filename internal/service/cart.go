package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
}

type CartLineView struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	// Price is the product's current catalog price. It differs from
	// UnitPrice when the catalog changed after the line was added.
	Price decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	// Available is what is left in stock beyond this line's reservation.
	Available int `json:"available"`
}

type CartView struct {
	CartID    uuid.UUID       `json:"cart_id"`
	Items     []CartLineView  `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

type cartEvent struct {
	CartID    uuid.UUID `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id,omitempty"`
	Quantity  int       `json:"quantity"`
}

func (s *CartService) Resolve(ctx context.Context, userID, cookieCartID *uuid.UUID) (uuid.UUID, error) {
	cart, err := s.Repo.ResolveCart(ctx, userID, cookieCartID)
	if err != nil {
		return uuid.Nil, err
	}
	return cart.ID, nil
}

func (s *CartService) List(ctx context.Context, cartID uuid.UUID) (*CartView, error) {
	lines, err := s.Repo.CartLines(ctx, cartID)
	if err != nil {
		return nil, err
	}

	view := &CartView{CartID: cartID, Items: make([]CartLineView, 0, len(lines)), Subtotal: decimal.Zero}
	for _, l := range lines {
		total := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		view.Items = append(view.Items, CartLineView{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Product.Name,
			ImageURL:  l.Product.ImageURL,
			UnitPrice: l.UnitPrice,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			LineTotal: total,
			Available: l.Product.Inventory,
		})
		view.Subtotal = view.Subtotal.Add(total)
		view.ItemCount += l.Quantity
	}
	return view, nil
}

// AddItem reserves qty units of the product for the cart.
func (s *CartService) AddItem(ctx context.Context, cartID, productID uuid.UUID, qty int) (line *models.CartLine, err error) {
	ctx, span := tracer.Start(ctx, "cart.add_item", trace.WithAttributes(
		attribute.String("cart.id", cartID.String()),
		attribute.String("product.id", productID.String()),
		attribute.Int("quantity", qty),
	))
	defer func() { finish(span, err) }()

	if productID == uuid.Nil {
		return nil, fmt.Errorf("product_id is required: %w", domain.ErrValidation)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", domain.ErrValidation)
	}

	line, err = s.Repo.AddItem(ctx, cartID, productID, qty)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("cart_item_added", "cart_id", cartID, "product_id", productID, "quantity", qty)
	publish(ctx, s.Events, mykafka.TopicCart, cartID.String(), mykafka.CartItemAdded,
		cartEvent{CartID: cartID, ProductID: productID, Quantity: line.Quantity})
	return line, nil
}

// SetQuantity sets a line to qty units. Zero removes the line; removed
// reports whether that happened.
func (s *CartService) SetQuantity(ctx context.Context, cartID, lineID uuid.UUID, qty int) (line *models.CartLine, removed bool, err error) {
	ctx, span := tracer.Start(ctx, "cart.set_quantity", trace.WithAttributes(
		attribute.String("cart.id", cartID.String()),
		attribute.String("line.id", lineID.String()),
		attribute.Int("quantity", qty),
	))
	defer func() { finish(span, err) }()

	if qty < 0 {
		return nil, false, fmt.Errorf("quantity must not be negative: %w", domain.ErrValidation)
	}

	line, removed, err = s.Repo.SetQuantity(ctx, cartID, lineID, qty)
	if err != nil {
		return nil, false, err
	}

	typ := mykafka.CartItemUpdated
	if removed {
		typ = mykafka.CartItemRemoved
	}
	publish(ctx, s.Events, mykafka.TopicCart, cartID.String(), typ,
		cartEvent{CartID: cartID, ProductID: line.ProductID, Quantity: qty})
	return line, removed, nil
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, lineID uuid.UUID) (err error) {
	ctx, span := tracer.Start(ctx, "cart.remove_item", trace.WithAttributes(
		attribute.String("cart.id", cartID.String()),
		attribute.String("line.id", lineID.String()),
	))
	defer func() { finish(span, err) }()

	line, err := s.Repo.RemoveItem(ctx, cartID, lineID)
	if err != nil {
		return err
	}
	publish(ctx, s.Events, mykafka.TopicCart, cartID.String(), mykafka.CartItemRemoved,
		cartEvent{CartID: cartID, ProductID: line.ProductID})
	return nil
}

// Clear abandons the cart, returning every reserved unit to stock.
func (s *CartService) Clear(ctx context.Context, cartID uuid.UUID) (err error) {
	ctx, span := tracer.Start(ctx, "cart.clear", trace.WithAttributes(attribute.String("cart.id", cartID.String())))
	defer func() { finish(span, err) }()

	lines, err := s.Repo.ClearCart(ctx, cartID)
	if err != nil {
		return err
	}
	units := 0
	for _, l := range lines {
		units += l.Quantity
	}
	publish(ctx, s.Events, mykafka.TopicCart, cartID.String(), mykafka.CartCleared,
		cartEvent{CartID: cartID, Quantity: units})
	return nil
}

package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
)

// OrderBuilder turns the locked cart lines into the order to persist.
type OrderBuilder func(lines []models.CartLine) (*models.Order, error)

// CheckoutCart converts a cart into an order in one transaction: the cart
// lines are read under lock, the order and its items are inserted and the
// lines are deleted. Reserved units stay out of inventory and now belong
// to the order.
func (r *GormRepo) CheckoutCart(ctx context.Context, cartID uuid.UUID, build OrderBuilder) (*models.Order, error) {
	var order *models.Order

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []models.CartLine
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Product").
			Where("cart_id = ?", cartID).
			Order("created_at ASC").
			Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("cart is empty: %w", domain.ErrValidation)
		}

		o, err := build(lines)
		if err != nil {
			return err
		}
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartLine{}).Error; err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&o).Error; err != nil {
		return nil, notFound(err, "order")
	}
	return &o, nil
}

func (r *GormRepo) FindOrderByIntent(ctx context.Context, intentID string) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Where("payment_intent_id = ?", intentID).First(&o).Error; err != nil {
		return nil, notFound(err, "order")
	}
	return &o, nil
}

// ListOrders returns orders newest first. A nil userID lists every order.
func (r *GormRepo) ListOrders(ctx context.Context, userID *uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Session(&gorm.Session{}).Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// RecordPaymentRequest stores the outcome of asking the gateway for a
// payment handle. An empty intentID records a failed attempt.
func (r *GormRepo) RecordPaymentRequest(ctx context.Context, orderID uuid.UUID, intentID string) (*models.Order, error) {
	updates := map[string]any{
		"payment_attempts": gorm.Expr("payment_attempts + 1"),
		"payment_state":    domain.PaymentFailed,
	}
	if intentID != "" {
		updates["payment_state"] = domain.PaymentRequested
		updates["payment_intent_id"] = intentID
	}

	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, domain.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("pending order %s: %w", orderID, domain.ErrNotFound)
	}
	return r.FindOrder(ctx, orderID)
}

// UpdateOrderStatus moves an order to a new status. Cancelling an order that
// has not completed puts its units back into inventory in the same
// transaction.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) (*models.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", orderID).
			First(&o).Error; err != nil {
			return notFound(err, "order")
		}
		return transition(tx, &o, to)
	})
	if err != nil {
		return nil, err
	}
	return r.FindOrder(ctx, orderID)
}

// ApplyPaymentResult records the gateway's final word on a payment intent.
// A successful payment moves a PENDING order to PROCESSING. Orders whose
// payment request never reached the processor have no intent id and are
// never matched.
func (r *GormRepo) ApplyPaymentResult(ctx context.Context, intentID string, succeeded bool) (*models.Order, error) {
	if intentID == "" {
		return nil, fmt.Errorf("payment intent id is required: %w", domain.ErrValidation)
	}
	var orderID uuid.UUID

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_intent_id = ?", intentID).
			First(&o).Error; err != nil {
			return notFound(err, "order for payment intent")
		}
		orderID = o.ID

		if !succeeded {
			if o.PaymentState == domain.PaymentSucceeded {
				return nil
			}
			return tx.Model(&o).Update("payment_state", domain.PaymentFailed).Error
		}

		if err := tx.Model(&o).Update("payment_state", domain.PaymentSucceeded).Error; err != nil {
			return err
		}
		if o.Status == domain.StatusPending {
			return transition(tx, &o, domain.StatusProcessing)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindOrder(ctx, orderID)
}

func transition(tx *gorm.DB, o *models.Order, to domain.OrderStatus) error {
	if o.Status == to {
		return nil
	}
	if !domain.CanTransition(o.Status, to) {
		return fmt.Errorf("order %s: %s -> %s: %w", o.ID, o.Status, to, domain.ErrConflict)
	}

	if to == domain.StatusCancelled && domain.RestocksOnCancel(o.Status) {
		var items []models.OrderItem
		if err := tx.Where("order_id = ?", o.ID).Order("product_id").Find(&items).Error; err != nil {
			return err
		}
		for _, it := range items {
			if err := release(tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
	}

	if err := tx.Model(o).Update("status", to).Error; err != nil {
		return err
	}
	o.Status = to
	return nil
}

package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
)

// reserve takes qty units of a product out of inventory. It must run inside
// the transaction that records what the units were reserved for.
//
// The decrement is a single conditional UPDATE, so concurrent reservations
// against the same row are serialized by the database and inventory never
// goes below zero.
func reserve(tx *gorm.DB, productID uuid.UUID, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND inventory >= ?", productID, qty).
		Update("inventory", gorm.Expr("inventory - ?", qty))
	if res.Error != nil {
		if pkgdb.IsCheckViolation(res.Error) {
			return fmt.Errorf("product %s: %w", productID, domain.ErrInsufficientInventory)
		}
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return fmt.Errorf("product %s: want %d: %w", productID, qty, domain.ErrInsufficientInventory)
}

// release returns qty units to inventory.
func release(tx *gorm.DB, productID uuid.UUID, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("inventory", gorm.Expr("inventory + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// AdjustInventory restocks (delta > 0) or writes off (delta < 0) units of a
// product outside of any cart or order and returns the new inventory.
func (r *GormRepo) AdjustInventory(ctx context.Context, productID uuid.UUID, delta int) (int, error) {
	var inventory int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		switch {
		case delta > 0:
			err = release(tx, productID, delta)
		case delta < 0:
			err = reserve(tx, productID, -delta)
		}
		if err != nil {
			return err
		}

		var p models.Product
		if err := tx.Select("inventory").Where("id = ?", productID).First(&p).Error; err != nil {
			return notFound(err, "product")
		}
		inventory = p.Inventory
		return nil
	})
	return inventory, err
}

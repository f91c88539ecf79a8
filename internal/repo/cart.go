package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
)

// ResolveCart returns the cart for the caller. A signed-in user gets their
// own cart, adopting the anonymous cookie cart when they have none yet. An
// anonymous caller gets the cookie cart if it is still unowned.
func (r *GormRepo) ResolveCart(ctx context.Context, userID, cookieCartID *uuid.UUID) (*models.Cart, error) {
	db := r.DB.WithContext(ctx)

	if userID != nil {
		var cart models.Cart
		err := db.Where("user_id = ?", *userID).First(&cart).Error
		if err == nil {
			return &cart, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		if cookieCartID != nil {
			res := db.Model(&models.Cart{}).
				Where("id = ? AND user_id IS NULL", *cookieCartID).
				Update("user_id", *userID)
			if res.Error != nil && !pkgdb.IsUniqueViolation(res.Error) {
				return nil, res.Error
			}
			if res.Error == nil && res.RowsAffected == 1 {
				return r.FindCart(ctx, *cookieCartID)
			}
		}

		cart = models.Cart{UserID: userID}
		if err := db.Create(&cart).Error; err != nil {
			if pkgdb.IsUniqueViolation(err) {
				var existing models.Cart
				if err := db.Where("user_id = ?", *userID).First(&existing).Error; err != nil {
					return nil, err
				}
				return &existing, nil
			}
			return nil, err
		}
		return &cart, nil
	}

	if cookieCartID != nil {
		var cart models.Cart
		err := db.Where("id = ? AND user_id IS NULL", *cookieCartID).First(&cart).Error
		if err == nil {
			return &cart, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	cart := models.Cart{}
	if err := db.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) FindCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB.WithContext(ctx).Where("id = ?", cartID).First(&cart).Error; err != nil {
		return nil, notFound(err, "cart")
	}
	return &cart, nil
}

// CartLines returns the cart's lines with their live product rows.
func (r *GormRepo) CartLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	if _, err := r.FindCart(ctx, cartID); err != nil {
		return nil, err
	}

	var lines []models.CartLine
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// AddItem reserves qty units and records them on the cart's line for the
// product, creating the line at the current product price or growing the
// existing one. Both writes commit together or not at all.
func (r *GormRepo) AddItem(ctx context.Context, cartID, productID uuid.UUID, qty int) (*models.CartLine, error) {
	var line models.CartLine

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").Where("id = ?", cartID).First(&models.Cart{}).Error; err != nil {
			return notFound(err, "cart")
		}

		var product models.Product
		if err := tx.Select("id", "price").Where("id = ?", productID).First(&product).Error; err != nil {
			return notFound(err, "product")
		}

		if err := reserve(tx, productID, qty); err != nil {
			return err
		}

		line = models.CartLine{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  qty,
			UnitPrice: product.Price,
		}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_lines.quantity + excluded.quantity"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).Create(&line).Error; err != nil {
			return err
		}

		return tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&line).Error
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// SetQuantity moves a line to qty units, reserving or releasing only the
// difference. qty == 0 removes the line. removed reports that case.
func (r *GormRepo) SetQuantity(ctx context.Context, cartID, lineID uuid.UUID, qty int) (line *models.CartLine, removed bool, err error) {
	var l models.CartLine

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockLine(tx, cartID, lineID, &l); err != nil {
			return err
		}

		delta := qty - l.Quantity
		switch {
		case qty == 0:
			if err := release(tx, l.ProductID, l.Quantity); err != nil {
				return err
			}
			removed = true
			return tx.Delete(&l).Error
		case delta > 0:
			if err := reserve(tx, l.ProductID, delta); err != nil {
				return err
			}
			if err := tx.Model(&l).Update("quantity", qty).Error; err != nil {
				return err
			}
		case delta < 0:
			if err := tx.Model(&l).Update("quantity", qty).Error; err != nil {
				return err
			}
			if err := release(tx, l.ProductID, -delta); err != nil {
				return err
			}
		}
		l.Quantity = qty
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &l, removed, nil
}

// RemoveItem deletes a line and returns its units to inventory.
func (r *GormRepo) RemoveItem(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartLine, error) {
	var l models.CartLine

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockLine(tx, cartID, lineID, &l); err != nil {
			return err
		}
		if err := release(tx, l.ProductID, l.Quantity); err != nil {
			return err
		}
		return tx.Delete(&l).Error
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ClearCart releases and deletes every line of the cart.
func (r *GormRepo) ClearCart(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").Where("id = ?", cartID).First(&models.Cart{}).Error; err != nil {
			return notFound(err, "cart")
		}
		// product order keeps row locks consistent with other releases
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ?", cartID).
			Order("product_id").
			Find(&lines).Error; err != nil {
			return err
		}
		for _, l := range lines {
			if err := release(tx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		return tx.Where("cart_id = ?", cartID).Delete(&models.CartLine{}).Error
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func lockLine(tx *gorm.DB, cartID, lineID uuid.UUID, l *models.CartLine) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND cart_id = ?", lineID, cartID).
		First(l).Error
	if err != nil {
		return notFound(err, fmt.Sprintf("cart line %s", lineID))
	}
	return nil
}

package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
)

type ProductFilter struct {
	CategoryID *uuid.UUID
	Query      string
}

type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
	CategoryID  *uuid.UUID
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "product")
	}
	return &p, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Session(&gorm.Session{}).Preload("Category").
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// GetProductsByIDs returns the products in the order of ids, skipping ids
// that no longer exist.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	err := r.DB.WithContext(ctx).Omit("Category").Create(p).Error
	if pkgdb.IsForeignKeyViolation(err) {
		return fmt.Errorf("category: %w", domain.ErrNotFound)
	}
	return err
}

// PatchProduct never touches inventory; stock moves through reservations
// and AdjustInventory only.
func (r *GormRepo) PatchProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.ImageURL != nil {
		updates["image_url"] = *patch.ImageURL
	}
	if patch.CategoryID != nil {
		updates["category_id"] = *patch.CategoryID
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").Where("id = ?", id).First(&models.Product{}).Error; err != nil {
			return notFound(err, "product")
		}
		if len(updates) == 0 {
			return nil
		}
		err := tx.Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error
		if pkgdb.IsForeignKeyViolation(err) {
			return fmt.Errorf("category: %w", domain.ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetProduct(ctx, id)
}

// DeleteProduct refuses to delete products that sit in a cart or an order.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.CartLine{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs == 0 {
			if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
				return err
			}
		}
		if refs > 0 {
			return fmt.Errorf("product %s is referenced by carts or orders: %w", id, domain.ErrConflict)
		}

		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product: %w", domain.ErrNotFound)
		}
		return nil
	})
}

func (r *GormRepo) GetCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	err := r.DB.WithContext(ctx).Create(c).Error
	if pkgdb.IsUniqueViolation(err) {
		return fmt.Errorf("category %q: %w", c.Name, domain.ErrConflict)
	}
	return err
}

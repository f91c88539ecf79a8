package repo

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Seed loads the starter catalog into an empty database. It is a no-op once
// any product exists.
func (r *GormRepo) Seed(ctx context.Context) (bool, error) {
	seeded := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Product{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		mounts := models.Category{Name: "mounts", Description: "Phone mounts for bikes"}
		if err := tx.Create(&mounts).Error; err != nil {
			return err
		}

		products := []models.Product{
			{
				Name:        "Universal Bike Mount",
				Description: "Fits most handlebars and phones up to 6.7 inches.",
				Price:       decimal.RequireFromString("24.99"),
				Inventory:   100,
				ImageURL:    "/images/universal-mount.jpg",
				CategoryID:  &mounts.ID,
			},
			{
				Name:        "Premium Waterproof Mount",
				Description: "Sealed case with touch-through screen cover.",
				Price:       decimal.RequireFromString("39.99"),
				Inventory:   50,
				ImageURL:    "/images/waterproof-mount.jpg",
				CategoryID:  &mounts.ID,
			},
			{
				Name:        "Quick-Release Bike Mount",
				Description: "One-click release for fast phone removal.",
				Price:       decimal.RequireFromString("29.99"),
				Inventory:   75,
				ImageURL:    "/images/quick-release-mount.jpg",
				CategoryID:  &mounts.ID,
			},
		}
		if err := tx.Omit("Category").Create(&products).Error; err != nil {
			return err
		}
		seeded = true
		return nil
	})
	return seeded, err
}

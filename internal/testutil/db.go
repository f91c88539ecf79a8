// Package testutil builds throwaway SQLite databases for package tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
)

// NewDB opens a fresh in-memory database with the schema applied.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := pkgdb.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))

	t.Cleanup(func() { _ = pkgdb.Close(db) })
	return db
}

func NewProduct(t testing.TB, db *gorm.DB, name, price string, inventory int) models.Product {
	t.Helper()

	p := models.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Inventory:   inventory,
		ImageURL:    "/images/" + name + ".jpg",
	}
	require.NoError(t, db.Omit("Category").Create(&p).Error)
	return p
}

func NewCart(t testing.TB, db *gorm.DB, userID *uuid.UUID) models.Cart {
	t.Helper()

	c := models.Cart{UserID: userID}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func Inventory(t testing.TB, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var p models.Product
	require.NoError(t, db.Select("inventory").Where("id = ?", productID).First(&p).Error)
	return p.Inventory
}

func CartQuantity(t testing.TB, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var sum int
	require.NoError(t, db.Model(&models.CartLine{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error)
	return sum
}

func OrderedQuantity(t testing.TB, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var sum int
	require.NoError(t, db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_id = ? AND orders.status <> ?", productID, "CANCELLED").
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&sum).Error)
	return sum
}

// FailCreatesOn makes every INSERT into table fail with err until the
// returned function is called.
func FailCreatesOn(t testing.TB, db *gorm.DB, table string, err error) func() {
	t.Helper()

	name := "testutil:fail_" + table + "_" + uuid.NewString()
	enabled := true
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if enabled && tx.Statement.Table == table {
			_ = tx.AddError(err)
		}
	}))
	return func() { enabled = false }
}

// ProductWrites records, in order, the id of every product row an UPDATE
// touches from now on.
func ProductWrites(t testing.TB, db *gorm.DB) func() []uuid.UUID {
	t.Helper()

	var (
		mu  sync.Mutex
		ids []uuid.UUID
	)
	name := "testutil:product_writes_" + uuid.NewString()
	require.NoError(t, db.Callback().Update().After("gorm:update").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != "products" {
			return
		}
		for i := len(tx.Statement.Vars) - 1; i >= 0; i-- {
			if id, ok := tx.Statement.Vars[i].(uuid.UUID); ok {
				mu.Lock()
				ids = append(ids, id)
				mu.Unlock()
				return
			}
		}
	}))
	return func() []uuid.UUID {
		mu.Lock()
		defer mu.Unlock()
		return append([]uuid.UUID(nil), ids...)
	}
}

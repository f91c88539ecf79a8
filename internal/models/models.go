package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"primaryKey"         json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `gorm:"not null"           json:"description"`
}

// Product.Inventory is the number of units still available to reserve.
type Product struct {
	ID          uuid.UUID       `gorm:"primaryKey"                             json:"id"`
	Name        string          `gorm:"not null;index"                         json:"name"`
	Description string          `gorm:"not null"                               json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"            json:"price"`
	Inventory   int             `gorm:"not null;check:inventory >= 0"          json:"inventory"`
	ImageURL    string          `gorm:"not null"                               json:"image_url"`
	CategoryID  *uuid.UUID      `gorm:"index"                                  json:"category_id,omitempty"`
	Category    *Category       `gorm:"constraint:OnDelete:SET NULL"           json:"category,omitempty"`
	CreatedAt   time.Time       `                                              json:"created_at"`
	UpdatedAt   time.Time       `                                              json:"updated_at"`
}

// Cart is owned by a user or, when UserID is nil, by the browser session
// holding its id in the cartId cookie.
type Cart struct {
	ID        uuid.UUID  `gorm:"primaryKey"                  json:"id"`
	UserID    *uuid.UUID `gorm:"uniqueIndex"                 json:"user_id,omitempty"`
	Lines     []CartLine `gorm:"constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	CreatedAt time.Time  `                                   json:"created_at"`
	UpdatedAt time.Time  `                                   json:"updated_at"`
}

// CartLine holds one product per cart; every unit in Quantity has been
// subtracted from the product's inventory.
type CartLine struct {
	ID        uuid.UUID       `gorm:"primaryKey"                                json:"id"`
	CartID    uuid.UUID       `gorm:"uniqueIndex:idx_cart_product;not null"     json:"cart_id"`
	ProductID uuid.UUID       `gorm:"uniqueIndex:idx_cart_product;index;not null" json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0"               json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"               json:"unit_price"`
	Product   Product         `gorm:"constraint:OnDelete:RESTRICT"              json:"-"`
	CreatedAt time.Time       `                                                 json:"created_at"`
	UpdatedAt time.Time       `                                                 json:"updated_at"`
}

func (p *Category) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (Category) TableName() string { return "categories" }
func (Product) TableName() string  { return "products" }
func (Cart) TableName() string     { return "carts" }
func (CartLine) TableName() string { return "cart_lines" }

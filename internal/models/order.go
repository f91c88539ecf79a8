package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/domain"
)

type ShippingAddress struct {
	Street     string `gorm:"not null" json:"street"`
	City       string `gorm:"not null" json:"city"`
	State      string `gorm:"not null" json:"state"`
	PostalCode string `gorm:"not null" json:"postal_code"`
	Country    string `gorm:"not null" json:"country"`
}

func (a ShippingAddress) Complete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.PostalCode != "" && a.Country != ""
}

type Order struct {
	ID              uuid.UUID             `gorm:"primaryKey"                          json:"id"`
	UserID          *uuid.UUID            `gorm:"index"                               json:"user_id,omitempty"`
	Status          domain.OrderStatus    `gorm:"type:varchar(16);not null;index"     json:"status"`
	PaymentState    domain.PaymentState   `gorm:"type:varchar(16);not null"           json:"payment_state"`
	PaymentIntentID string                `gorm:"index"                               json:"payment_intent_id,omitempty"`
	PaymentAttempts int                   `gorm:"not null;default:0"                  json:"payment_attempts"`
	CustomerEmail   string                `gorm:"not null"                            json:"customer_email"`
	CustomerName    string                `gorm:"not null"                            json:"customer_name"`
	ShippingAddress ShippingAddress       `gorm:"embedded;embeddedPrefix:ship_"       json:"shipping_address"`
	ShippingMethod  domain.ShippingMethod `gorm:"type:varchar(16);not null"           json:"shipping_method"`
	ShippingCost    decimal.Decimal       `gorm:"type:numeric(12,2);not null"         json:"shipping_cost"`
	Subtotal        decimal.Decimal       `gorm:"type:numeric(12,2);not null"         json:"subtotal"`
	Total           decimal.Decimal       `gorm:"type:numeric(12,2);not null"         json:"total"`
	Items           []OrderItem           `gorm:"constraint:OnDelete:CASCADE"         json:"items"`
	CreatedAt       time.Time             `gorm:"index"                               json:"created_at"`
	UpdatedAt       time.Time             `                                           json:"updated_at"`
}

type OrderItem struct {
	ID          uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderID     uuid.UUID       `gorm:"index;not null"              json:"order_id"`
	ProductID   uuid.UUID       `gorm:"index;not null"              json:"product_id"`
	ProductName string          `gorm:"not null"                    json:"product_name"`
	Quantity    int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

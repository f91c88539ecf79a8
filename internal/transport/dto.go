// Package transport holds the JSON bodies exchanged over HTTP.
package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/util"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type CartLineResponse struct {
	Line    *models.CartLine `json:"line,omitempty"`
	Removed bool             `json:"removed"`
}

type CheckoutRequest struct {
	CustomerEmail   string                 `json:"customer_email"`
	CustomerName    string                 `json:"customer_name"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	ShippingMethod  string                 `json:"shipping_method"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Inventory   int             `json:"inventory"`
	ImageURL    string          `json:"image_url"`
	CategoryID  *uuid.UUID      `json:"category_id"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url"`
	CategoryID  *uuid.UUID       `json:"category_id"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AdjustInventoryRequest struct {
	Amount    int    `json:"amount"`
	Direction string `json:"direction"`
}

type InventoryResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Inventory int       `json:"inventory"`
}

type Page[T any] struct {
	Items []T           `json:"items"`
	Meta  util.PageMeta `json:"meta"`
}

// PaymentFailedResponse is returned with 502 when the order exists but the
// processor did not issue a payment handle.
type PaymentFailedResponse struct {
	Error string        `json:"error"`
	Order *models.Order `json:"order"`
}

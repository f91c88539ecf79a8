package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "standard"
	ShippingExpress   ShippingMethod = "express"
	ShippingOvernight ShippingMethod = "overnight"
)

type ShippingOption struct {
	ID            ShippingMethod  `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays string          `json:"estimated_days"`
}

// perExtraItem is charged for every item after the first.
var perExtraItem = decimal.RequireFromString("2.00")

var shippingOptions = []ShippingOption{
	{ID: ShippingStandard, Name: "Standard Shipping", Price: decimal.RequireFromString("5.99"), EstimatedDays: "5-7 business days"},
	{ID: ShippingExpress, Name: "Express Shipping", Price: decimal.RequireFromString("14.99"), EstimatedDays: "2-3 business days"},
	{ID: ShippingOvernight, Name: "Overnight Shipping", Price: decimal.RequireFromString("29.99"), EstimatedDays: "1 business day"},
}

func ShippingOptions() []ShippingOption {
	out := make([]ShippingOption, len(shippingOptions))
	copy(out, shippingOptions)
	return out
}

func ParseShippingMethod(s string) (ShippingMethod, error) {
	for _, o := range shippingOptions {
		if string(o.ID) == s {
			return o.ID, nil
		}
	}
	return "", fmt.Errorf("unknown shipping method %q: %w", s, ErrValidation)
}

// ShippingCost is the method's base rate plus perExtraItem for each item
// beyond the first. totalItems counts units, not lines.
func ShippingCost(method ShippingMethod, totalItems int) (decimal.Decimal, error) {
	for _, o := range shippingOptions {
		if o.ID != method {
			continue
		}
		extra := totalItems - 1
		if extra < 0 {
			extra = 0
		}
		return o.Price.Add(perExtraItem.Mul(decimal.NewFromInt(int64(extra)))), nil
	}
	return decimal.Zero, fmt.Errorf("unknown shipping method %q: %w", method, ErrValidation)
}

// MinorUnits converts an amount to integer cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

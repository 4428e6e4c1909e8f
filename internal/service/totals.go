package service

import (
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// ComputeTotals prices a cart snapshot. Shipping is free once the subtotal is strictly above
// freeShippingThreshold, otherwise flatFee is charged.
func ComputeTotals(items []domain.LineItem, freeShippingThreshold, flatFee decimal.Decimal) domain.Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	shipping := flatFee
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	return domain.Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

package pricing

import (
	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultTaxRate               = 0.08
	DefaultFreeShippingThreshold = 165.00
)

// Calculator derives order totals. It holds no state between calls.
type Calculator struct {
	taxRate               decimal.Decimal
	freeShippingThreshold decimal.Decimal
}

func NewCalculator(taxRate, freeShippingThreshold float64) *Calculator {
	return &Calculator{
		taxRate:               decimal.NewFromFloat(taxRate),
		freeShippingThreshold: decimal.NewFromFloat(freeShippingThreshold),
	}
}

// Subtotal is the sum of price × quantity over all items.
func (c *Calculator) Subtotal(items []domain.CartItem) float64 {
	return subtotal(items).InexactFloat64()
}

// Totals computes subtotal, tax, shipping and total. A nil method means no rate has been resolved yet.
func (c *Calculator) Totals(items []domain.CartItem, method *domain.ShippingMethod) domain.OrderTotals {
	sub := subtotal(items)
	tax := sub.Mul(c.taxRate).Round(2)

	shipping := decimal.Zero
	if method != nil {
		shipping = decimal.NewFromFloat(method.Price)
	}

	return domain.OrderTotals{
		Subtotal: sub.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Total:    sub.Add(tax).Add(shipping).InexactFloat64(),
	}
}

// FreeShipping projects how far the subtotal is from the free-shipping threshold.
func (c *Calculator) FreeShipping(subtotalAmount float64) domain.FreeShippingProgress {
	sub := decimal.NewFromFloat(subtotalAmount)
	remaining := decimal.Max(decimal.Zero, c.freeShippingThreshold.Sub(sub)).Round(2)

	percent := decimal.NewFromInt(100)
	if c.freeShippingThreshold.IsPositive() {
		percent = decimal.Min(percent, sub.Div(c.freeShippingThreshold).Mul(decimal.NewFromInt(100)))
	}

	return domain.FreeShippingProgress{
		Threshold: c.freeShippingThreshold.InexactFloat64(),
		Remaining: remaining.InexactFloat64(),
		Percent:   percent.Round(1).InexactFloat64(),
		Qualifies: remaining.IsZero(),
	}
}

func subtotal(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

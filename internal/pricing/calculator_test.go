package pricing

import (
	"testing"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/stretchr/testify/assert"
)

func TestTotals_Arithmetic(t *testing.T) {
	calc := NewCalculator(DefaultTaxRate, DefaultFreeShippingThreshold)
	items := []domain.CartItem{
		{ID: "p1", Price: 25.00, Quantity: 2},
		{ID: "p2", Price: 50.00, Quantity: 1},
	}

	totals := calc.Totals(items, &domain.ShippingMethod{ID: "standard", Price: 8.00})

	assert.Equal(t, 100.00, totals.Subtotal)
	assert.Equal(t, 8.00, totals.Tax)
	assert.Equal(t, 8.00, totals.Shipping)
	assert.Equal(t, 116.00, totals.Total)
}

func TestTotals_NoShippingResolvedYet(t *testing.T) {
	calc := NewCalculator(DefaultTaxRate, DefaultFreeShippingThreshold)
	items := []domain.CartItem{{ID: "p1", Price: 10.00, Quantity: 1}}

	totals := calc.Totals(items, nil)

	assert.Equal(t, 0.0, totals.Shipping)
	assert.Equal(t, 10.80, totals.Total)
}

func TestTotals_TaxRoundedToCents(t *testing.T) {
	calc := NewCalculator(DefaultTaxRate, DefaultFreeShippingThreshold)
	items := []domain.CartItem{{ID: "p1", Price: 19.99, Quantity: 3}}

	totals := calc.Totals(items, nil)

	// 59.97 * 0.08 = 4.7976
	assert.Equal(t, 59.97, totals.Subtotal)
	assert.Equal(t, 4.80, totals.Tax)
	assert.Equal(t, 64.77, totals.Total)
}

func TestTotals_Idempotent(t *testing.T) {
	calc := NewCalculator(DefaultTaxRate, DefaultFreeShippingThreshold)
	items := []domain.CartItem{
		{ID: "p1", Price: 12.34, Quantity: 7},
		{ID: "p2", Price: 0.99, Quantity: 13},
	}
	method := &domain.ShippingMethod{ID: "standard", Price: 12.99}

	first := calc.Totals(items, method)
	second := calc.Totals(items, method)

	assert.Equal(t, first, second)
}

func TestTotals_EmptyCart(t *testing.T) {
	calc := NewCalculator(DefaultTaxRate, DefaultFreeShippingThreshold)

	totals := calc.Totals(nil, nil)

	assert.Equal(t, domain.OrderTotals{}, totals)
}

func TestFreeShipping_Progress(t *testing.T) {
	calc := NewCalculator(DefaultTaxRate, DefaultFreeShippingThreshold)

	progress := calc.FreeShipping(120)

	assert.Equal(t, 45.00, progress.Remaining)
	assert.InDelta(t, 72.7, progress.Percent, 0.1)
	assert.False(t, progress.Qualifies)
	assert.Equal(t, 165.00, progress.Threshold)
}

func TestFreeShipping_OverThreshold(t *testing.T) {
	calc := NewCalculator(DefaultTaxRate, DefaultFreeShippingThreshold)

	progress := calc.FreeShipping(200)

	assert.Equal(t, 0.0, progress.Remaining)
	assert.Equal(t, 100.0, progress.Percent)
	assert.True(t, progress.Qualifies)
}

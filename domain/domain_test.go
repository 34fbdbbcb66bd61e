package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutStep_NextAndPrevious(t *testing.T) {
	next, ok := CheckoutStepContact.Next()
	assert.True(t, ok)
	assert.Equal(t, CheckoutStepShipping, next)

	next, ok = CheckoutStepShipping.Next()
	assert.True(t, ok)
	assert.Equal(t, CheckoutStepPayment, next)

	_, ok = CheckoutStepPayment.Next()
	assert.False(t, ok)

	prev, ok := CheckoutStepPayment.Previous()
	assert.True(t, ok)
	assert.Equal(t, CheckoutStepShipping, prev)

	_, ok = CheckoutStepContact.Previous()
	assert.False(t, ok)
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"800g", 800 * 0.00220462},
		{"1.6kg", 1.6 * 2.20462},
		{"16 oz", 1},
		{"5 lb", 5},
		{"2.5", 2.5},
		{"unknown", 1},
		{"", 1},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseWeight(tt.label), 1e-9)
		})
	}
}

func TestShippingAddress_MissingFields(t *testing.T) {
	addr := ShippingAddress{
		FirstName: "Ada",
		Address:   "1 Main St",
		City:      "Asheville",
		State:     "NC",
		Country:   "US",
	}

	assert.Equal(t, []string{"last_name", "zip", "phone"}, addr.MissingFields())
	assert.False(t, addr.CanQuoteShipping())

	addr.LastName = "Lovelace"
	addr.Zip = "28801"
	addr.Phone = "8285551234"
	assert.Empty(t, addr.MissingFields())
	assert.True(t, addr.CanQuoteShipping())
}

func TestShippingAddress_SameRateDestination(t *testing.T) {
	addr := ShippingAddress{
		FirstName: "Ada", LastName: "Lovelace", Address: "1 Main St",
		City: "Asheville", State: "NC", Zip: "28801", Country: "US", Phone: "8285551234",
	}

	other := addr
	other.FirstName = "Grace"
	other.Address2 = "Apt 2"
	other.Phone = "8285550000"
	assert.True(t, addr.SameRateDestination(other))

	for _, change := range []func(*ShippingAddress){
		func(a *ShippingAddress) { a.Address = "2 Main St" },
		func(a *ShippingAddress) { a.City = "Boone" },
		func(a *ShippingAddress) { a.State = "SC" },
		func(a *ShippingAddress) { a.Zip = "28802" },
		func(a *ShippingAddress) { a.Country = "CA" },
	} {
		moved := addr
		change(&moved)
		assert.False(t, addr.SameRateDestination(moved))
	}
}

func TestNewCheckoutState_SeedsCustomerEmail(t *testing.T) {
	state := NewCheckoutState(&Customer{ID: "c1", Email: "ada@example.com"})

	assert.Equal(t, CheckoutStepContact, state.Step)
	assert.Equal(t, "ada@example.com", state.Contact.Email)
	assert.Equal(t, DefaultCountry, state.ShippingAddress.Country)
	assert.True(t, state.NewCard.BillingSameAsShipping)

	guest := NewCheckoutState(nil)
	assert.Empty(t, guest.Contact.Email)
}

func TestDefaultPaymentMethod(t *testing.T) {
	methods := []PaymentMethod{
		{ID: "pm_1", LastFour: "4242"},
		{ID: "pm_2", LastFour: "1111", IsDefault: true},
	}
	assert.Equal(t, "pm_2", DefaultPaymentMethod(methods).ID)
	assert.Nil(t, DefaultPaymentMethod(methods[:1]))
}

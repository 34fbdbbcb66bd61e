package domain

type ContactInfo struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	SMSSent     bool   `json:"sms_sent"`
	SMSVerified bool   `json:"sms_verified"`
}

// Customer is the authenticated shopper, if any.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CheckoutState is everything the wizard has collected so far.
type CheckoutState struct {
	Step             CheckoutStep    `json:"step"`
	Contact          ContactInfo     `json:"contact"`
	ShippingAddress  ShippingAddress `json:"shipping_address"`
	ShippingMethodID string          `json:"shipping_method_id"`
	PaymentMethodID  string          `json:"payment_method_id"`
	NewCard          NewCardInput    `json:"new_card"`
}

// NewCheckoutState returns the initial state, seeded with the customer's email when known.
func NewCheckoutState(customer *Customer) CheckoutState {
	state := CheckoutState{
		Step: CheckoutStepContact,
		ShippingAddress: ShippingAddress{
			Country: DefaultCountry,
		},
		NewCard: NewCardInput{
			BillingSameAsShipping: true,
			BillingAddress:        BillingAddress{Country: DefaultCountry},
		},
	}
	if customer != nil {
		state.Contact.Email = customer.Email
	}
	return state
}

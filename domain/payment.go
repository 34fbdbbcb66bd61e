package domain

// NewPaymentMethodID selects card entry instead of a saved method.
const NewPaymentMethodID = "new"

// PaymentMethod is a saved card on the customer's profile.
type PaymentMethod struct {
	ID              string `json:"id"`
	CardType        string `json:"card_type,omitempty"`
	LastFour        string `json:"last_four"`
	ExpirationMonth int    `json:"expiration_month,omitempty"`
	ExpirationYear  int    `json:"expiration_year,omitempty"`
	IsDefault       bool   `json:"is_default"`
}

// DefaultPaymentMethod returns the first method flagged as default, or nil.
func DefaultPaymentMethod(methods []PaymentMethod) *PaymentMethod {
	for i := range methods {
		if methods[i].IsDefault {
			m := methods[i]
			return &m
		}
	}
	return nil
}

type BillingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

// BillingFromShipping copies a shipping address into billing form.
func BillingFromShipping(a ShippingAddress) BillingAddress {
	return BillingAddress{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Address:   a.Address,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Zip:       a.Zip,
		Country:   a.Country,
		Phone:     a.Phone,
	}
}

// NewCardInput is card data typed at checkout. It is never persisted.
type NewCardInput struct {
	CardNumber            string         `json:"card_number"`
	ExpirationMonth       string         `json:"expiration_month"`
	ExpirationYear        string         `json:"expiration_year"`
	CVV                   string         `json:"cvv"`
	CardType              string         `json:"card_type,omitempty"`
	BillingSameAsShipping bool           `json:"billing_same_as_shipping"`
	BillingAddress        BillingAddress `json:"billing_address"`
}

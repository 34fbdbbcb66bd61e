package domain

import "strings"

const DefaultCountry = "US"

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
}

// MissingFields lists the json names of required fields that are blank, in form order.
// Address2 is the only optional field.
func (a ShippingAddress) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"zip", a.Zip},
		{"country", a.Country},
		{"phone", a.Phone},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// CanQuoteShipping reports whether the address has enough for a rate lookup.
func (a ShippingAddress) CanQuoteShipping() bool {
	return strings.TrimSpace(a.State) != "" && strings.TrimSpace(a.Zip) != ""
}

// SameRateDestination reports whether b quotes the same shipping rates as a.
func (a ShippingAddress) SameRateDestination(b ShippingAddress) bool {
	return a.Address == b.Address &&
		a.City == b.City &&
		a.State == b.State &&
		a.Zip == b.Zip &&
		a.Country == b.Country
}

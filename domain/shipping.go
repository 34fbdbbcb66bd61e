package domain

// LocalPickupMethodID is the rate service's id for in-store pickup.
const LocalPickupMethodID = "local-pickup"

type ShippingMethod struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	EstimatedDays string  `json:"estimatedDays"`
	Price         float64 `json:"price"`
	IsFree        bool    `json:"isFree"`
}

// FindShippingMethod returns the method with the given id, or nil.
func FindShippingMethod(methods []ShippingMethod, id string) *ShippingMethod {
	for i := range methods {
		if methods[i].ID == id {
			m := methods[i]
			return &m
		}
	}
	return nil
}

// RateRequest is the body sent to the shipping-rate service.
type RateRequest struct {
	Subtotal float64     `json:"subtotal"`
	Items    []RateItem  `json:"items"`
	Address  RateAddress `json:"address"`
}

type RateItem struct {
	Weight   float64 `json:"weight"`
	Quantity int     `json:"quantity"`
}

type RateAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

func NewRateRequest(addr ShippingAddress, items []CartItem, subtotal float64) RateRequest {
	rateItems := make([]RateItem, 0, len(items))
	for _, it := range items {
		rateItems = append(rateItems, RateItem{Weight: it.Weight, Quantity: it.Quantity})
	}
	return RateRequest{
		Subtotal: subtotal,
		Items:    rateItems,
		Address: RateAddress{
			Street:  addr.Address,
			City:    addr.City,
			State:   addr.State,
			ZipCode: addr.Zip,
			Country: addr.Country,
		},
	}
}

package domain

// OrderTotals is derived from the cart and the selected shipping method. Never stored.
type OrderTotals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

type FreeShippingProgress struct {
	Threshold float64 `json:"threshold"`
	Remaining float64 `json:"remaining"`
	Percent   float64 `json:"percent"`
	Qualifies bool    `json:"qualifies"`
}

package shipping

import "github.com/fjod/go_cart/storefront-checkout/domain"

// SelectCheapest returns the id of the lowest-priced method, skipping excludeID.
// Ties keep the first method encountered. It returns "" when nothing qualifies.
func SelectCheapest(methods []domain.ShippingMethod, excludeID string) string {
	var best *domain.ShippingMethod
	for i := range methods {
		m := &methods[i]
		if m.ID == excludeID {
			continue
		}
		if best == nil || m.Price < best.Price {
			best = m
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}

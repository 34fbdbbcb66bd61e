package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront-checkout/domain"
)

type calculateResponse struct {
	Calculation struct {
		AvailableMethods []domain.ShippingMethod `json:"availableMethods"`
	} `json:"calculation"`
}

// ShippingClient talks to the shipping-rate service.
type ShippingClient struct {
	*Client
}

func NewShippingClient(c *Client) *ShippingClient {
	return &ShippingClient{Client: c}
}

func (s *ShippingClient) FetchRates(ctx context.Context, req domain.RateRequest) ([]domain.ShippingMethod, error) {
	var resp calculateResponse
	if err := s.do(ctx, "shipping_calculate", http.MethodPost, "/shipping/calculate", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Calculation.AvailableMethods, nil
}

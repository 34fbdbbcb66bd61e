package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront-checkout/domain"
)

type paymentMethodsResponse struct {
	PaymentMethods []domain.PaymentMethod `json:"payment_methods"`
}

// PaymentClient reads the customer's saved payment methods.
type PaymentClient struct {
	*Client
}

func NewPaymentClient(c *Client) *PaymentClient {
	return &PaymentClient{Client: c}
}

func (p *PaymentClient) ListPaymentMethods(ctx context.Context, customerID string) ([]domain.PaymentMethod, error) {
	path := "/payment-methods?" + url.Values{"customer_id": {customerID}}.Encode()

	var resp paymentMethodsResponse
	if err := p.do(ctx, "payment_methods", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.PaymentMethods, nil
}

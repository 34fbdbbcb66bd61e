package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront-checkout/domain"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// CreatedOrder is the optional order summary in a create-order answer.
type CreatedOrder struct {
	ID            string  `json:"id"`
	OrderNumber   string  `json:"order_number"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Total         float64 `json:"total"`
	TransactionID string  `json:"transaction_id"`
}

type createOrderResponse struct {
	Success bool          `json:"success"`
	Order   *CreatedOrder `json:"order"`
}

// OrderClient submits orders to the order backend.
type OrderClient struct {
	*Client
}

func NewOrderClient(c *Client) *OrderClient {
	return &OrderClient{Client: c}
}

// CreateOrder sends one create-order request. The returned order is empty when the
// backend answers 2xx without a body.
func (o *OrderClient) CreateOrder(ctx context.Context, idempotencyKey string, req domain.CreateOrderRequest) (*CreatedOrder, error) {
	header := http.Header{}
	header.Set(IdempotencyKeyHeader, idempotencyKey)

	var resp createOrderResponse
	if err := o.do(ctx, "create_order", http.MethodPost, "/checkout/create-order", header, req, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil {
		return &CreatedOrder{}, nil
	}
	return resp.Order, nil
}

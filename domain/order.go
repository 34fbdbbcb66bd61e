package domain

import "time"

type OrderItem struct {
	ProductID    string  `json:"product_id"`
	VariantID    string  `json:"variant_id,omitempty"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Title        string  `json:"title"`
	VariantTitle string  `json:"variant_title,omitempty"`
}

// NewCardPayload is the card block sent with an order; billing is always resolved.
type NewCardPayload struct {
	CardNumber      string         `json:"card_number"`
	ExpirationMonth string         `json:"expiration_month"`
	ExpirationYear  string         `json:"expiration_year"`
	CVV             string         `json:"cvv"`
	CardType        string         `json:"card_type,omitempty"`
	BillingAddress  BillingAddress `json:"billing_address"`
}

// CreateOrderRequest is the body of the order backend's create-order call.
type CreateOrderRequest struct {
	CustomerID      *string         `json:"customer_id,omitempty"`
	Email           string          `json:"email"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethodID *string         `json:"payment_method_id"`
	NewCard         *NewCardPayload `json:"new_card"`
	Items           []OrderItem     `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	Tax             float64         `json:"tax"`
	Total           float64         `json:"total"`
}

// OrderConfirmation is what the customer is sent to after a successful order.
type OrderConfirmation struct {
	OrderID        string  `json:"order_id,omitempty"`
	OrderNumber    string  `json:"order_number,omitempty"`
	Total          float64 `json:"total"`
	IdempotencyKey string  `json:"idempotency_key"`
	RedirectURL    string  `json:"redirect_url"`
}

// EventOrderPlaced is the outbox event type published for every recorded order.
const EventOrderPlaced = "checkout.order_placed"

// PlacedOrder is the local record of an order the backend accepted.
type PlacedOrder struct {
	IdempotencyKey string    `json:"idempotency_key"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	CustomerID     string    `json:"customer_id,omitempty"`
	CartOwnerID    string    `json:"cart_owner_id"`
	Email          string    `json:"email"`
	ItemCount      int       `json:"item_count"`
	Subtotal       float64   `json:"subtotal"`
	Shipping       float64   `json:"shipping"`
	Tax            float64   `json:"tax"`
	Total          float64   `json:"total"`
	PlacedAt       time.Time `json:"placed_at"`
}

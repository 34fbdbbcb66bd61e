package order

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/fjod/go_cart/storefront-checkout/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockOrderCreator struct {
	created *backend.CreatedOrder
	err     error
	keys    []string
	reqs    []domain.CreateOrderRequest
	// onCreate runs before CreateOrder returns.
	onCreate func()
}

func (m *mockOrderCreator) CreateOrder(_ context.Context, key string, req domain.CreateOrderRequest) (*backend.CreatedOrder, error) {
	if m.onCreate != nil {
		m.onCreate()
	}
	m.keys = append(m.keys, key)
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.created, nil
}

type mockCartClearer struct {
	cleared []string
	err     error
	ctxErr  error
}

func (m *mockCartClearer) ClearCart(ctx context.Context, ownerID string) error {
	m.ctxErr = ctx.Err()
	m.cleared = append(m.cleared, ownerID)
	return m.err
}

type mockLedger struct {
	orders []domain.PlacedOrder
	err    error
	ctxErr error
}

func (m *mockLedger) RecordOrderPlaced(ctx context.Context, o domain.PlacedOrder) error {
	m.ctxErr = ctx.Err()
	m.orders = append(m.orders, o)
	return m.err
}

type mockRecorder struct {
	placed, failed int
}

func (m *mockRecorder) OrderPlaced() { m.placed++ }
func (m *mockRecorder) OrderFailed() { m.failed++ }

var shipTo = domain.ShippingAddress{
	FirstName: "Ada", LastName: "Lovelace", Address: "1 Main St", Address2: "Apt 2",
	City: "Austin", State: "TX", Zip: "78701", Country: "US", Phone: "5125550100",
}

func paymentState(paymentMethodID string) domain.CheckoutState {
	s := domain.NewCheckoutState(nil)
	s.Step = domain.CheckoutStepPayment
	s.Contact = domain.ContactInfo{Email: "ada@example.com", Phone: "5125550100"}
	s.ShippingAddress = shipTo
	s.ShippingMethodID = "ground"
	s.PaymentMethodID = paymentMethodID
	return s
}

var (
	items = []domain.CartItem{
		{ID: "p1", VariantID: "v1", Title: "Salmon Bites", VariantTitle: "Large", Price: 50, Quantity: 2, Weight: 2},
	}
	totals = domain.OrderTotals{Subtotal: 100, Tax: 8, Shipping: 8, Total: 116}
)

func TestBuildRequest_SavedMethod(t *testing.T) {
	req := BuildRequest(paymentState("pm_1"), items, totals, &domain.Customer{ID: "cust-1", Email: "ada@example.com"})

	require.NotNil(t, req.CustomerID)
	assert.Equal(t, "cust-1", *req.CustomerID)
	require.NotNil(t, req.PaymentMethodID)
	assert.Equal(t, "pm_1", *req.PaymentMethodID)
	assert.Nil(t, req.NewCard)
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, shipTo, req.ShippingAddress)
	assert.Equal(t, []domain.OrderItem{
		{ProductID: "p1", VariantID: "v1", Quantity: 2, Price: 50, Title: "Salmon Bites", VariantTitle: "Large"},
	}, req.Items)
	assert.Equal(t, 100.0, req.Subtotal)
	assert.Equal(t, 8.0, req.Tax)
	assert.Equal(t, 8.0, req.Shipping)
	assert.Equal(t, 116.0, req.Total)
}

func TestBuildRequest_NewCardBillingSameAsShipping(t *testing.T) {
	state := paymentState(domain.NewPaymentMethodID)
	state.NewCard.CardNumber = "4242424242424242"
	state.NewCard.ExpirationMonth = "04"
	state.NewCard.ExpirationYear = "2030"
	state.NewCard.CVV = "123"

	req := BuildRequest(state, items, totals, nil)

	assert.Nil(t, req.CustomerID)
	assert.Nil(t, req.PaymentMethodID)
	require.NotNil(t, req.NewCard)
	assert.Equal(t, "4242424242424242", req.NewCard.CardNumber)
	assert.Equal(t, domain.BillingFromShipping(shipTo), req.NewCard.BillingAddress)
}

func TestBuildRequest_NewCardSeparateBilling(t *testing.T) {
	state := paymentState(domain.NewPaymentMethodID)
	state.NewCard.BillingSameAsShipping = false
	state.NewCard.BillingAddress = domain.BillingAddress{FirstName: "Bill", City: "Dallas", Country: "US"}

	req := BuildRequest(state, items, totals, nil)

	require.NotNil(t, req.NewCard)
	assert.Equal(t, "Bill", req.NewCard.BillingAddress.FirstName)
	assert.Equal(t, "Dallas", req.NewCard.BillingAddress.City)
}

func newSubmission() Submission {
	return Submission{
		Request:        BuildRequest(paymentState("pm_1"), items, totals, &domain.Customer{ID: "cust-1"}),
		IdempotencyKey: "key-1",
		CartOwnerID:    "cust-1",
	}
}

func TestSubmit_Success(t *testing.T) {
	orders := &mockOrderCreator{created: &backend.CreatedOrder{ID: "o-1", OrderNumber: "PF-1001"}}
	carts := &mockCartClearer{}
	ledger := &mockLedger{}
	rec := &mockRecorder{}
	s := NewSubmitter(orders, carts, ledger, rec, "/checkout/confirmation", zap.NewNop())

	conf, err := s.Submit(context.Background(), newSubmission())

	require.NoError(t, err)
	assert.Equal(t, "/checkout/confirmation?order=PF-1001", conf.RedirectURL)
	assert.Equal(t, "PF-1001", conf.OrderNumber)
	assert.Equal(t, 116.0, conf.Total)
	assert.Equal(t, []string{"key-1"}, orders.keys)
	assert.Equal(t, []string{"cust-1"}, carts.cleared)
	require.Len(t, ledger.orders, 1)
	assert.Equal(t, "o-1", ledger.orders[0].OrderID)
	assert.Equal(t, 2, ledger.orders[0].ItemCount)
	assert.Equal(t, "cust-1", ledger.orders[0].CustomerID)
	assert.Equal(t, "cust-1", ledger.orders[0].CartOwnerID)
	assert.Equal(t, 1, rec.placed)
}

func TestSubmit_BackendFailureKeepsCart(t *testing.T) {
	orders := &mockOrderCreator{err: &backend.APIError{Status: http.StatusInternalServerError, Message: "Failed to create order"}}
	carts := &mockCartClearer{}
	ledger := &mockLedger{}
	rec := &mockRecorder{}
	s := NewSubmitter(orders, carts, ledger, rec, "/checkout/confirmation", zap.NewNop())

	conf, err := s.Submit(context.Background(), newSubmission())

	assert.Nil(t, conf)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Failed to create order", apiErr.Message)
	assert.Empty(t, carts.cleared)
	assert.Empty(t, ledger.orders)
	assert.Equal(t, 1, rec.failed)
}

func TestSubmit_PostOrderFailuresAreNotReturned(t *testing.T) {
	orders := &mockOrderCreator{created: &backend.CreatedOrder{ID: "o-1"}}
	carts := &mockCartClearer{err: errors.New("mongo down")}
	ledger := &mockLedger{err: errors.New("postgres down")}
	s := NewSubmitter(orders, carts, ledger, nil, "/checkout/confirmation", zap.NewNop())

	conf, err := s.Submit(context.Background(), newSubmission())

	require.NoError(t, err)
	assert.Equal(t, "/checkout/confirmation?order=o-1", conf.RedirectURL)
}

func TestSubmit_NoOrderReference(t *testing.T) {
	orders := &mockOrderCreator{created: &backend.CreatedOrder{}}
	s := NewSubmitter(orders, &mockCartClearer{}, nil, nil, "/checkout/confirmation", zap.NewNop())

	conf, err := s.Submit(context.Background(), newSubmission())

	require.NoError(t, err)
	assert.Equal(t, "/checkout/confirmation", conf.RedirectURL)
}

func TestSubmit_CallerCancelledAfterCreateStillCleansUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orders := &mockOrderCreator{
		created:  &backend.CreatedOrder{ID: "o-1", OrderNumber: "PF-1001"},
		onCreate: cancel,
	}
	carts := &mockCartClearer{}
	ledger := &mockLedger{}
	s := NewSubmitter(orders, carts, ledger, nil, "/checkout/confirmation", zap.NewNop())

	conf, err := s.Submit(ctx, newSubmission())

	require.NoError(t, err)
	assert.Equal(t, "PF-1001", conf.OrderNumber)
	assert.Equal(t, []string{"cust-1"}, carts.cleared)
	assert.NoError(t, carts.ctxErr)
	require.Len(t, ledger.orders, 1)
	assert.NoError(t, ledger.ctxErr)
}

package order

import (
	"context"
	"net/url"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/fjod/go_cart/storefront-checkout/internal/backend"
	"github.com/fjod/go_cart/storefront-checkout/pkg/logger"
	"go.uber.org/zap"
)

// afterOrderTimeout bounds the cart clear and ledger write that follow an accepted order.
const afterOrderTimeout = 10 * time.Second

type OrderCreator interface {
	CreateOrder(ctx context.Context, idempotencyKey string, req domain.CreateOrderRequest) (*backend.CreatedOrder, error)
}

type CartClearer interface {
	ClearCart(ctx context.Context, ownerID string) error
}

type Ledger interface {
	RecordOrderPlaced(ctx context.Context, order domain.PlacedOrder) error
}

type Recorder interface {
	OrderPlaced()
	OrderFailed()
}

// Submission is one order attempt for a checkout session.
type Submission struct {
	Request        domain.CreateOrderRequest
	IdempotencyKey string
	CartOwnerID    string
}

type Submitter struct {
	orders           OrderCreator
	carts            CartClearer
	ledger           Ledger
	metrics          Recorder
	confirmationPath string
	log              *zap.Logger
}

// NewSubmitter wires the submitter. ledger and metrics may be nil.
func NewSubmitter(orders OrderCreator, carts CartClearer, ledger Ledger, metrics Recorder, confirmationPath string, log *zap.Logger) *Submitter {
	return &Submitter{
		orders:           orders,
		carts:            carts,
		ledger:           ledger,
		metrics:          metrics,
		confirmationPath: confirmationPath,
		log:              log,
	}
}

// BuildRequest assembles the create-order payload. Exactly one of payment_method_id and
// new_card is set.
func BuildRequest(state domain.CheckoutState, items []domain.CartItem, totals domain.OrderTotals, customer *domain.Customer) domain.CreateOrderRequest {
	req := domain.CreateOrderRequest{
		Email:           state.Contact.Email,
		ShippingAddress: state.ShippingAddress,
		Items:           make([]domain.OrderItem, 0, len(items)),
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Tax:             totals.Tax,
		Total:           totals.Total,
	}
	if customer != nil && customer.ID != "" {
		id := customer.ID
		req.CustomerID = &id
	}

	if state.PaymentMethodID == domain.NewPaymentMethodID {
		card := state.NewCard
		billing := card.BillingAddress
		if card.BillingSameAsShipping {
			billing = domain.BillingFromShipping(state.ShippingAddress)
		}
		req.NewCard = &domain.NewCardPayload{
			CardNumber:      card.CardNumber,
			ExpirationMonth: card.ExpirationMonth,
			ExpirationYear:  card.ExpirationYear,
			CVV:             card.CVV,
			CardType:        card.CardType,
			BillingAddress:  billing,
		}
	} else {
		id := state.PaymentMethodID
		req.PaymentMethodID = &id
	}

	for _, it := range items {
		req.Items = append(req.Items, domain.OrderItem{
			ProductID:    it.ID,
			VariantID:    it.VariantID,
			Quantity:     it.Quantity,
			Price:        it.Price,
			Title:        it.Title,
			VariantTitle: it.VariantTitle,
		})
	}
	return req
}

// Submit sends the order once. On success the cart is cleared and a confirmation returned.
// Failures after the backend accepted the order are logged, never returned.
func (s *Submitter) Submit(ctx context.Context, sub Submission) (*domain.OrderConfirmation, error) {
	log := logger.WithContext(ctx, s.log).With(zap.String("idempotency_key", sub.IdempotencyKey))

	created, err := s.orders.CreateOrder(ctx, sub.IdempotencyKey, sub.Request)
	if err != nil {
		if s.metrics != nil {
			s.metrics.OrderFailed()
		}
		log.Warn("create order failed", zap.Error(err))
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.OrderPlaced()
	}
	log.Info("order placed",
		zap.String("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.Float64("total", sub.Request.Total))

	// The order exists at the backend now; a cancelled caller must not skip the clean-up.
	post, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterOrderTimeout)
	defer cancel()

	if sub.CartOwnerID != "" {
		if err := s.carts.ClearCart(post, sub.CartOwnerID); err != nil {
			log.Error("clear cart after order failed", zap.String("owner_id", sub.CartOwnerID), zap.Error(err))
		}
	}

	if s.ledger != nil {
		if err := s.ledger.RecordOrderPlaced(post, placedOrder(sub, created)); err != nil {
			log.Error("record placed order failed", zap.Error(err))
		}
	}

	return &domain.OrderConfirmation{
		OrderID:        created.ID,
		OrderNumber:    created.OrderNumber,
		Total:          sub.Request.Total,
		IdempotencyKey: sub.IdempotencyKey,
		RedirectURL:    s.redirectURL(created),
	}, nil
}

func (s *Submitter) redirectURL(created *backend.CreatedOrder) string {
	ref := created.OrderNumber
	if ref == "" {
		ref = created.ID
	}
	if ref == "" {
		return s.confirmationPath
	}
	return s.confirmationPath + "?" + url.Values{"order": {ref}}.Encode()
}

func placedOrder(sub Submission, created *backend.CreatedOrder) domain.PlacedOrder {
	req := sub.Request
	po := domain.PlacedOrder{
		IdempotencyKey: sub.IdempotencyKey,
		OrderID:        created.ID,
		OrderNumber:    created.OrderNumber,
		CartOwnerID:    sub.CartOwnerID,
		Email:          req.Email,
		Subtotal:       req.Subtotal,
		Shipping:       req.Shipping,
		Tax:            req.Tax,
		Total:          req.Total,
		PlacedAt:       time.Now().UTC(),
	}
	if req.CustomerID != nil {
		po.CustomerID = *req.CustomerID
	}
	for _, it := range req.Items {
		po.ItemCount += it.Quantity
	}
	return po
}

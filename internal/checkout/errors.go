package checkout

import (
	"errors"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/fjod/go_cart/storefront-checkout/internal/session"
)

var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrCheckoutCompleted     = errors.New("checkout already completed")
	ErrSubmissionInProgress  = errors.New("order submission already in progress")
	ErrNoNextStep            = errors.New("no step after payment; place the order instead")
	ErrNoPreviousStep        = errors.New("already on the first step")
	ErrNotOnPaymentStep      = errors.New("orders can only be placed from the payment step")
	ErrUnknownShippingMethod = errors.New("shipping method is not available for this address")
	ErrSessionClosed         = errors.New("checkout session closed")
	ErrSessionNotFound       = session.ErrSessionNotFound
)

// ValidationError is a step validation failure. Message is shown to the customer as-is.
type ValidationError struct {
	Step    domain.CheckoutStep
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

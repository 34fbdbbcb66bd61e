package checkout

import (
	"slices"
	"strings"

	"github.com/fjod/go_cart/storefront-checkout/domain"
)

// View is a point-in-time snapshot of a wizard for rendering.
type View struct {
	SessionID             string                      `json:"session_id"`
	Step                  domain.CheckoutStep         `json:"step"`
	Contact               domain.ContactInfo          `json:"contact"`
	ShippingAddress       domain.ShippingAddress      `json:"shipping_address"`
	ShippingMethods       []domain.ShippingMethod     `json:"shipping_methods"`
	ShippingMethodID      string                      `json:"shipping_method_id"`
	LoadingShipping       bool                        `json:"loading_shipping"`
	SavedPaymentMethods   []domain.PaymentMethod      `json:"saved_payment_methods"`
	LoadingPaymentMethods bool                        `json:"loading_payment_methods"`
	PaymentMethodID       string                      `json:"payment_method_id"`
	NewCard               domain.NewCardInput         `json:"new_card"`
	Items                 []domain.CartItem           `json:"items"`
	Totals                domain.OrderTotals          `json:"totals"`
	FreeShipping          domain.FreeShippingProgress `json:"free_shipping"`
	Error                 string                      `json:"error,omitempty"`
	Processing            bool                        `json:"processing"`
	Confirmation          *domain.OrderConfirmation   `json:"confirmation,omitempty"`
}

func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	totals := w.totals()
	v := View{
		SessionID:             w.id,
		Step:                  w.state.Step,
		Contact:               w.state.Contact,
		ShippingAddress:       w.state.ShippingAddress,
		ShippingMethods:       slices.Clone(w.shippingMethods),
		ShippingMethodID:      w.state.ShippingMethodID,
		LoadingShipping:       w.loadingShipping,
		SavedPaymentMethods:   slices.Clone(w.savedMethods),
		LoadingPaymentMethods: w.loadingPayments,
		PaymentMethodID:       w.state.PaymentMethodID,
		NewCard:               maskCard(w.state.NewCard),
		Items:                 slices.Clone(w.items),
		Totals:                totals,
		FreeShipping:          w.deps.Calculator.FreeShipping(totals.Subtotal),
		Error:                 w.errMsg,
		Processing:            w.processing,
	}
	if w.confirmation != nil {
		conf := *w.confirmation
		v.Confirmation = &conf
	}
	return v
}

// State returns a copy of the collected checkout data.
func (w *Wizard) State() domain.CheckoutState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// maskCard keeps only the last four digits of the card number and drops the CVV.
func maskCard(card domain.NewCardInput) domain.NewCardInput {
	digits := cardDigits(card.CardNumber)
	if len(digits) > 4 {
		card.CardNumber = strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
	}
	card.CVV = ""
	return card
}

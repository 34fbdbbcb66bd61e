package checkout

import (
	"strings"
	"unicode"

	"github.com/fjod/go_cart/storefront-checkout/domain"
)

const (
	minPhoneDigits = 10
	minCardDigits  = 13
	maxCardDigits  = 19
)

// ValidateStep runs the validator of the state's current step.
func ValidateStep(state domain.CheckoutState, requireSMS bool) error {
	switch state.Step {
	case domain.CheckoutStepContact:
		return ValidateContact(state, requireSMS)
	case domain.CheckoutStepShipping:
		return ValidateShipping(state)
	case domain.CheckoutStepPayment:
		return ValidatePayment(state)
	default:
		return &ValidationError{Step: state.Step, Message: "Unknown checkout step"}
	}
}

func ValidateContact(state domain.CheckoutState, requireSMS bool) error {
	c := state.Contact
	if !strings.Contains(c.Email, "@") {
		return &ValidationError{Step: domain.CheckoutStepContact, Message: "Please enter a valid email address"}
	}
	if countDigits(c.Phone) < minPhoneDigits {
		return &ValidationError{Step: domain.CheckoutStepContact, Message: "Please enter a valid phone number"}
	}
	if requireSMS && !c.SMSVerified {
		return &ValidationError{Step: domain.CheckoutStepContact, Message: "Please verify your phone number"}
	}
	return nil
}

func ValidateShipping(state domain.CheckoutState) error {
	if missing := state.ShippingAddress.MissingFields(); len(missing) > 0 {
		return &ValidationError{
			Step:    domain.CheckoutStepShipping,
			Message: "Please fill in: " + strings.ReplaceAll(strings.Join(missing, ", "), "_", " "),
		}
	}
	if state.ShippingMethodID == "" {
		return &ValidationError{Step: domain.CheckoutStepShipping, Message: "Please select a shipping method"}
	}
	return nil
}

func ValidatePayment(state domain.CheckoutState) error {
	if state.PaymentMethodID == "" {
		return &ValidationError{Step: domain.CheckoutStepPayment, Message: "Please select a payment method"}
	}
	if state.PaymentMethodID != domain.NewPaymentMethodID {
		return nil
	}

	card := state.NewCard
	for _, v := range []string{card.CardNumber, card.ExpirationMonth, card.ExpirationYear, card.CVV} {
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Step: domain.CheckoutStepPayment, Message: "Please fill in all card information"}
		}
	}

	number := cardDigits(card.CardNumber)
	if len(number) < minCardDigits || len(number) > maxCardDigits || countDigits(number) != len(number) {
		return &ValidationError{Step: domain.CheckoutStepPayment, Message: "Invalid card number"}
	}
	return nil
}

// cardDigits drops the spaces and dashes customers type between digit groups.
func cardDigits(number string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, number)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

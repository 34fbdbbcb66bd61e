package domain

type CheckoutStep string

const (
	CheckoutStepContact  CheckoutStep = "contact"
	CheckoutStepShipping CheckoutStep = "shipping"
	CheckoutStepPayment  CheckoutStep = "payment"
)

// Next returns the step after s. The bool is false on the last step.
func (s CheckoutStep) Next() (CheckoutStep, bool) {
	switch s {
	case CheckoutStepContact:
		return CheckoutStepShipping, true
	case CheckoutStepShipping:
		return CheckoutStepPayment, true
	default:
		return s, false
	}
}

// Previous returns the step before s. The bool is false on the first step.
func (s CheckoutStep) Previous() (CheckoutStep, bool) {
	switch s {
	case CheckoutStepPayment:
		return CheckoutStepShipping, true
	case CheckoutStepShipping:
		return CheckoutStepContact, true
	default:
		return s, false
	}
}

func (s CheckoutStep) IsValid() bool {
	return s == CheckoutStepContact || s == CheckoutStepShipping || s == CheckoutStepPayment
}

// String representation (for logging)
func (s CheckoutStep) String() string {
	return string(s)
}

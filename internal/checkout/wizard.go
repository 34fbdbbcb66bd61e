package checkout

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/fjod/go_cart/storefront-checkout/internal/backend"
	"github.com/fjod/go_cart/storefront-checkout/internal/order"
	"github.com/fjod/go_cart/storefront-checkout/internal/pricing"
	"github.com/fjod/go_cart/storefront-checkout/internal/shipping"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	fallbackOrderError  = "Failed to create order"
	genericOrderError   = "Failed to process order. Please try again."
	paymentFetchTimeout = 10 * time.Second
	rateFetchTimeout    = 10 * time.Second
)

type ShippingResolver interface {
	Resolve(ctx context.Context, addr domain.ShippingAddress, items []domain.CartItem, subtotal float64) (shipping.Resolution, error)
}

type PaymentMethodLister interface {
	ListPaymentMethods(ctx context.Context, customerID string) ([]domain.PaymentMethod, error)
}

type OrderSubmitter interface {
	Submit(ctx context.Context, sub order.Submission) (*domain.OrderConfirmation, error)
}

type Options struct {
	ShippingDebounce       time.Duration
	RequireSMSVerification bool
}

// Deps are the collaborators shared by every wizard.
type Deps struct {
	Resolver   ShippingResolver
	Payments   PaymentMethodLister
	Submitter  OrderSubmitter
	Calculator *pricing.Calculator
	Log        *zap.Logger
}

// Wizard is one customer's checkout session. All methods are safe for concurrent use.
// Network calls never run with the lock held.
type Wizard struct {
	mu sync.Mutex

	id          string
	customer    *domain.Customer
	cartOwnerID string
	deps        Deps
	opts        Options
	log         *zap.Logger

	items []domain.CartItem
	state domain.CheckoutState

	shippingMethods []domain.ShippingMethod
	loadingShipping bool
	savedMethods    []domain.PaymentMethod
	loadingPayments bool

	errMsg         string
	processing     bool
	confirmation   *domain.OrderConfirmation
	idempotencyKey string

	debouncer       *shipping.Debouncer
	debounceGen     uint64
	debouncePending bool
	rateSeq         uint64
	rateCancel      context.CancelFunc
	paySeq          uint64
	payCancel       context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewWizard starts a checkout on the given cart. cartOwnerID is the key of the cart to clear on success.
func NewWizard(id string, customer *domain.Customer, cartOwnerID string, items []domain.CartItem, deps Deps, opts Options) *Wizard {
	ctx, cancel := context.WithCancel(context.Background())
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Wizard{
		id:             id,
		customer:       customer,
		cartOwnerID:    cartOwnerID,
		deps:           deps,
		opts:           opts,
		log:            log.With(zap.String("checkout_session", id)),
		items:          slices.Clone(items),
		state:          domain.NewCheckoutState(customer),
		idempotencyKey: uuid.NewString(),
		debouncer:      shipping.NewDebouncer(opts.ShippingDebounce),
		ctx:            ctx,
		cancel:         cancel,
	}
}

func (w *Wizard) ID() string {
	return w.id
}

// OwnedBy reports whether the session belongs to the given cart owner.
func (w *Wizard) OwnedBy(cartOwnerID string) bool {
	return w.cartOwnerID == cartOwnerID
}

// mutable clears the banner and reports whether the wizard still accepts edits. Caller holds mu.
func (w *Wizard) mutable() error {
	if w.closed {
		return ErrSessionClosed
	}
	if w.confirmation != nil {
		return ErrCheckoutCompleted
	}
	w.errMsg = ""
	return nil
}

// SetCart replaces the cart snapshot. A changed cart re-quotes shipping.
func (w *Wizard) SetCart(items []domain.CartItem) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.confirmation != nil || slices.Equal(w.items, items) {
		return
	}
	w.items = slices.Clone(items)
	if w.state.ShippingAddress.CanQuoteShipping() {
		w.scheduleResolve()
	}
}

// SetContact records email and phone. A new phone number needs verifying again.
func (w *Wizard) SetContact(email, phone string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	if phone != w.state.Contact.Phone {
		w.state.Contact.SMSSent = false
		w.state.Contact.SMSVerified = false
	}
	w.state.Contact.Email = email
	w.state.Contact.Phone = phone
	return nil
}

// RecordPhoneVerification stores the outcome reported by the SMS verifier.
func (w *Wizard) RecordPhoneVerification(sent, verified bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	w.state.Contact.SMSSent = sent || verified
	w.state.Contact.SMSVerified = verified
	return nil
}

// UpdateAddress replaces the shipping address and, when it changed and has state and zip,
// schedules a debounced rate lookup. A new destination drops the methods quoted for the old one.
func (w *Wizard) UpdateAddress(addr domain.ShippingAddress) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	if addr == w.state.ShippingAddress {
		return nil
	}
	prev := w.state.ShippingAddress
	w.state.ShippingAddress = addr
	if !addr.SameRateDestination(prev) {
		w.dropRates()
	}
	if addr.CanQuoteShipping() {
		w.scheduleResolve()
	}
	return nil
}

// SelectShippingMethod picks one of the fetched methods. It never re-quotes.
func (w *Wizard) SelectShippingMethod(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	if domain.FindShippingMethod(w.shippingMethods, id) == nil {
		return ErrUnknownShippingMethod
	}
	w.state.ShippingMethodID = id
	return nil
}

// SelectPaymentMethod picks a saved method id, or domain.NewPaymentMethodID for card entry.
func (w *Wizard) SelectPaymentMethod(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	w.state.PaymentMethodID = id
	return nil
}

// UpdateNewCard stores the card form. A masked or empty number and an empty CVV keep the
// values already stored, so the masked card from View can be sent back unchanged.
func (w *Wizard) UpdateNewCard(card domain.NewCardInput) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	prev := w.state.NewCard
	if card.CardNumber == "" || strings.Contains(card.CardNumber, "*") {
		card.CardNumber = prev.CardNumber
	}
	if card.CVV == "" {
		card.CVV = prev.CVV
	}
	w.state.NewCard = card
	return nil
}

// Advance validates the current step and moves forward. A failed validation sets the banner.
func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}

	next, ok := w.state.Step.Next()
	if !ok {
		return ErrNoNextStep
	}
	if err := ValidateStep(w.state, w.opts.RequireSMSVerification); err != nil {
		w.errMsg = err.Error()
		return err
	}

	if w.state.Step == domain.CheckoutStepContact {
		w.state.ShippingAddress.Phone = w.state.Contact.Phone
	}
	w.state.Step = next

	if next == domain.CheckoutStepPayment && w.customer != nil && w.deps.Payments != nil {
		w.fetchPaymentMethods()
	}
	return nil
}

// Retreat moves back one step keeping all entered data.
func (w *Wizard) Retreat() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	prev, ok := w.state.Step.Previous()
	if !ok {
		return ErrNoPreviousStep
	}
	w.state.Step = prev
	return nil
}

func (w *Wizard) DismissError() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errMsg = ""
}

// PlaceOrder validates payment and submits the order once. While a submission is in flight,
// or after one succeeded, further calls are rejected.
func (w *Wizard) PlaceOrder(ctx context.Context) (*domain.OrderConfirmation, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if w.confirmation != nil {
		w.mu.Unlock()
		return nil, ErrCheckoutCompleted
	}
	if w.processing {
		w.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	w.errMsg = ""

	if w.state.Step != domain.CheckoutStepPayment {
		w.mu.Unlock()
		return nil, ErrNotOnPaymentStep
	}
	if len(w.items) == 0 {
		w.mu.Unlock()
		return nil, ErrEmptyCart
	}
	// The address may have moved since the shipping step, leaving no quoted method.
	if err := ValidateShipping(w.state); err != nil {
		w.errMsg = err.Error()
		w.mu.Unlock()
		return nil, err
	}
	if err := ValidatePayment(w.state); err != nil {
		w.errMsg = err.Error()
		w.mu.Unlock()
		return nil, err
	}

	totals := w.totals()
	sub := order.Submission{
		Request:        order.BuildRequest(w.state, w.items, totals, w.customer),
		IdempotencyKey: w.idempotencyKey,
		CartOwnerID:    w.cartOwnerID,
	}
	w.processing = true
	w.mu.Unlock()

	conf, err := w.deps.Submitter.Submit(ctx, sub)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.processing = false
	if err != nil {
		w.errMsg = orderErrorMessage(err)
		return nil, err
	}

	w.confirmation = conf
	w.items = nil
	w.stopBackground()
	return conf, nil
}

func orderErrorMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallbackOrderError
	}
	return genericOrderError
}

// scheduleResolve restarts the debounce window. Caller holds mu.
func (w *Wizard) scheduleResolve() {
	if w.deps.Resolver == nil {
		return
	}
	if !w.debouncePending {
		w.debouncePending = true
		w.wg.Add(1)
	}
	w.debounceGen++
	gen := w.debounceGen
	w.debouncer.Trigger(func() { w.resolveShipping(gen) })
}

// dropRates forgets quoted methods and any lookup in flight. Caller holds mu.
func (w *Wizard) dropRates() {
	if w.rateCancel != nil {
		w.rateCancel()
		w.rateCancel = nil
	}
	w.rateSeq++
	w.loadingShipping = false
	w.shippingMethods = nil
	w.state.ShippingMethodID = ""
}

// resolveShipping runs when the debounce window for gen elapses.
func (w *Wizard) resolveShipping(gen uint64) {
	w.mu.Lock()
	if gen != w.debounceGen || !w.debouncePending {
		w.mu.Unlock()
		return
	}
	w.debouncePending = false
	defer w.wg.Done()

	if w.rateCancel != nil {
		w.rateCancel()
	}
	w.rateSeq++
	seq := w.rateSeq
	ctx, cancel := context.WithTimeout(w.ctx, rateFetchTimeout)
	w.rateCancel = cancel
	w.loadingShipping = true
	addr := w.state.ShippingAddress
	items := slices.Clone(w.items)
	subtotal := w.deps.Calculator.Subtotal(items)
	w.mu.Unlock()

	res, err := w.deps.Resolver.Resolve(ctx, addr, items, subtotal)
	cancel()

	w.mu.Lock()
	defer w.mu.Unlock()
	if seq != w.rateSeq {
		return
	}
	w.loadingShipping = false
	w.rateCancel = nil
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.log.Warn("shipping rate lookup failed", zap.Error(err))
		}
		return
	}

	w.shippingMethods = res.Methods
	switch {
	case res.AutoSelected != "":
		w.state.ShippingMethodID = res.AutoSelected
	case domain.FindShippingMethod(res.Methods, w.state.ShippingMethodID) == nil:
		w.state.ShippingMethodID = ""
	}
}

// fetchPaymentMethods loads saved methods in the background. Caller holds mu.
func (w *Wizard) fetchPaymentMethods() {
	if w.payCancel != nil {
		w.payCancel()
	}
	w.paySeq++
	seq := w.paySeq
	ctx, cancel := context.WithTimeout(w.ctx, paymentFetchTimeout)
	w.payCancel = cancel
	w.loadingPayments = true
	customerID := w.customer.ID

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()

		methods, err := w.deps.Payments.ListPaymentMethods(ctx, customerID)

		w.mu.Lock()
		defer w.mu.Unlock()
		if seq != w.paySeq {
			return
		}
		w.loadingPayments = false
		w.payCancel = nil
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				w.log.Warn("saved payment methods lookup failed", zap.Error(err))
			}
			return
		}

		w.savedMethods = methods
		if w.state.PaymentMethodID == "" {
			if def := domain.DefaultPaymentMethod(methods); def != nil {
				w.state.PaymentMethodID = def.ID
			}
		}
	}()
}

// stopBackground cancels pending and in-flight fetches. Caller holds mu.
func (w *Wizard) stopBackground() {
	w.debouncer.Stop()
	if w.debouncePending {
		w.debouncePending = false
		w.wg.Done()
	}
	w.cancel()
	w.loadingShipping = false
	w.loadingPayments = false
}

// Close stops background work. The wizard rejects further edits.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.stopBackground()
}

// Wait blocks until pending rate lookups and payment-method fetches finish.
func (w *Wizard) Wait() {
	w.wg.Wait()
}

// totals is recomputed on every call. Caller holds mu.
func (w *Wizard) totals() domain.OrderTotals {
	return w.deps.Calculator.Totals(w.items, domain.FindShippingMethod(w.shippingMethods, w.state.ShippingMethodID))
}

package checkout

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartReader interface {
	GetCart(ctx context.Context, ownerID string) (*domain.Cart, error)
}

type SessionStore interface {
	Put(id string, w *Wizard)
	Get(id string) (*Wizard, error)
	Delete(id string) error
}

// Service starts, finds and abandons checkout sessions.
type Service struct {
	carts CartReader
	store SessionStore
	deps  Deps
	opts  Options
	log   *zap.Logger
}

func NewService(carts CartReader, store SessionStore, deps Deps, opts Options) *Service {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		carts: carts,
		store: store,
		deps:  deps,
		opts:  opts,
		log:   log,
	}
}

// Start opens a checkout on the owner's current cart. customer is nil for guests.
func (s *Service) Start(ctx context.Context, customer *domain.Customer, cartOwnerID string) (*Wizard, error) {
	cart, err := s.carts.GetCart(ctx, cartOwnerID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	w := NewWizard(uuid.NewString(), customer, cartOwnerID, cart.Items, s.deps, s.opts)
	s.store.Put(w.ID(), w)
	s.log.Info("checkout started",
		zap.String("checkout_session", w.ID()),
		zap.Int("items", len(cart.Items)),
		zap.Bool("guest", customer == nil))
	return w, nil
}

// Get returns the owner's session. The cart snapshot is refreshed; a failed refresh keeps the old one.
func (s *Service) Get(ctx context.Context, id, cartOwnerID string) (*Wizard, error) {
	w, err := s.lookup(id, cartOwnerID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, cartOwnerID)
	if err != nil {
		s.log.Warn("cart refresh failed", zap.String("checkout_session", id), zap.Error(err))
		return w, nil
	}
	w.SetCart(cart.Items)
	return w, nil
}

// Find returns the owner's session without touching the cart.
func (s *Service) Find(id, cartOwnerID string) (*Wizard, error) {
	return s.lookup(id, cartOwnerID)
}

func (s *Service) Abandon(id, cartOwnerID string) error {
	if _, err := s.lookup(id, cartOwnerID); err != nil {
		return err
	}
	return s.store.Delete(id)
}

func (s *Service) lookup(id, cartOwnerID string) (*Wizard, error) {
	w, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !w.OwnedBy(cartOwnerID) {
		return nil, ErrSessionNotFound
	}
	return w, nil
}

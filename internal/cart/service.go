package cart

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/fjod/go_cart/storefront-checkout/internal/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Cache interface {
	Get(ctx context.Context, key string) (*domain.Cart, error)
	Set(ctx context.Context, key string, cart *domain.Cart) error
	Delete(ctx context.Context, key string) error
}

// Service reads carts through the cache and is the only path that clears them.
type Service struct {
	repo  Repository
	cache Cache
	sfg   singleflight.Group
	log   *zap.Logger
}

func NewService(repo Repository, cache Cache, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetCart returns the owner's cart. A missing cart is reported as an empty one.
func (s *Service) GetCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(ownerID, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, ownerID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cart cache get failed", zap.String("owner_id", ownerID), zap.Error(err))
		}

		c, err := s.repo.GetCart(ctx, ownerID)
		if errors.Is(err, ErrCartNotFound) {
			return &domain.Cart{OwnerID: ownerID, UpdatedAt: time.Now()}, nil
		}
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, ownerID, c); err != nil {
			s.log.Warn("cart cache set failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// ClearCart deletes the owner's cart. Clearing a cart that is already gone succeeds.
func (s *Service) ClearCart(ctx context.Context, ownerID string) error {
	if err := s.repo.DeleteCart(ctx, ownerID); err != nil && !errors.Is(err, ErrCartNotFound) {
		s.log.Error("cart delete failed", zap.String("owner_id", ownerID), zap.Error(err))
		return err
	}

	s.invalidate(ownerID)
	return nil
}

// ClearCartPlacedAt deletes the owner's cart unless it changed after placedAt. A cart the
// shopper refilled after the order is kept.
func (s *Service) ClearCartPlacedAt(ctx context.Context, ownerID string, placedAt time.Time) error {
	err := s.repo.DeleteCartUnchangedSince(ctx, ownerID, placedAt)
	if errors.Is(err, ErrCartNotFound) {
		s.log.Debug("cart gone or updated after order", zap.String("owner_id", ownerID), zap.Time("placed_at", placedAt))
		return nil
	}
	if err != nil {
		s.log.Error("cart delete failed", zap.String("owner_id", ownerID), zap.Error(err))
		return err
	}

	s.invalidate(ownerID)
	return nil
}

func (s *Service) invalidate(ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, ownerID); err != nil {
		s.log.Warn("cart cache invalidate failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
}

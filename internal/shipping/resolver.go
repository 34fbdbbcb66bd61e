package shipping

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/fjod/go_cart/storefront-checkout/internal/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// sharedFetchTimeout bounds a rate lookup once it no longer follows any single caller.
const sharedFetchTimeout = 30 * time.Second

type RateFetcher interface {
	FetchRates(ctx context.Context, req domain.RateRequest) ([]domain.ShippingMethod, error)
}

// Quote is a cached rate-service answer.
type Quote struct {
	Methods []domain.ShippingMethod `json:"methods"`
}

type QuoteCache interface {
	Get(ctx context.Context, key string) (*Quote, error)
	Set(ctx context.Context, key string, quote *Quote) error
}

type Resolution struct {
	Methods      []domain.ShippingMethod
	AutoSelected string
}

// Resolver turns an address and cart into available shipping methods and a default choice.
type Resolver struct {
	fetcher       RateFetcher
	cache         QuoteCache
	sfg           singleflight.Group
	localPickupID string
	log           *zap.Logger
}

// NewResolver builds a resolver. quotes may be nil to always ask the rate service.
func NewResolver(fetcher RateFetcher, quotes QuoteCache, localPickupID string, log *zap.Logger) *Resolver {
	if localPickupID == "" {
		localPickupID = domain.LocalPickupMethodID
	}
	return &Resolver{
		fetcher:       fetcher,
		cache:         quotes,
		localPickupID: localPickupID,
		log:           log,
	}
}

func (r *Resolver) Resolve(ctx context.Context, addr domain.ShippingAddress, items []domain.CartItem, subtotal float64) (Resolution, error) {
	req := domain.NewRateRequest(addr, items, subtotal)
	key, err := quoteKey(req)
	if err != nil {
		return Resolution{}, err
	}

	// Identical lookups are shared, so the fetch must not follow the caller that started it.
	ch := r.sfg.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		if q := r.cached(fctx, key); q != nil {
			return q.Methods, nil
		}

		methods, err := r.fetcher.FetchRates(fctx, req)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			if err := r.cache.Set(fctx, key, &Quote{Methods: methods}); err != nil {
				r.log.Warn("quote cache set failed", zap.Error(err))
			}
		}
		return methods, nil
	})

	var v interface{}
	select {
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Resolution{}, res.Err
		}
		v = res.Val
	}

	methods := v.([]domain.ShippingMethod)
	return Resolution{
		Methods:      methods,
		AutoSelected: SelectCheapest(methods, r.localPickupID),
	}, nil
}

func (r *Resolver) cached(ctx context.Context, key string) *Quote {
	if r.cache == nil {
		return nil
	}
	q, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.log.Warn("quote cache get failed", zap.Error(err))
		}
		return nil
	}
	return q
}

func quoteKey(req domain.RateRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal rate request: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

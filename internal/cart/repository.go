package cart

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// Repository is the read/clear view checkout needs of the external cart store.
type Repository interface {
	GetCart(ctx context.Context, ownerID string) (*domain.Cart, error)
	DeleteCart(ctx context.Context, ownerID string) error
	// DeleteCartUnchangedSince deletes the cart only if it was last updated at or before since.
	// It reports ErrCartNotFound when no such cart exists.
	DeleteCartUnchangedSince(ctx context.Context, ownerID string, since time.Time) error
}

package port

import (
	"context"

	"github.com/kwalram/textile-pos/internal/core/domain"
)

type CartStore interface {
	// Load returns the cart for the session, nil when none is stored
	Load(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save persists the cart under the session key
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error

	// Delete discards the stored cart for the session
	Delete(ctx context.Context, sessionID string) error
}

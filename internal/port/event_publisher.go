package port

import (
	"context"

	"github.com/kwalram/textile-pos/internal/core/domain"
)

type EventPublisher interface {
	// PublishOrderCompleted announces a completed checkout to downstream
	// consumers. Advisory: a failure must not fail the checkout.
	PublishOrderCompleted(ctx context.Context, sale domain.Sale, items []domain.OrderItem) error
}

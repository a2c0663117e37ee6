package port

import (
	"context"

	"github.com/kwalram/textile-pos/internal/core/domain"
)

type OrderGateway interface {
	// SubmitOrder creates the order on the order service. Any error,
	// transport or rejection, is retryable with the same payload.
	SubmitOrder(ctx context.Context, payload domain.OrderPayload) (*domain.OrderConfirmation, error)
}

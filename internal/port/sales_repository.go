package port

import (
	"context"

	"github.com/kwalram/textile-pos/internal/core/domain"
)

type SalesRepository interface {
	// RecordSale archives one completed checkout
	RecordSale(ctx context.Context, sale domain.Sale) error

	// ListSales returns the most recent sales, newest first
	ListSales(ctx context.Context, limit int) ([]domain.Sale, error)

	// Summarize aggregates revenue and order counts per payment method
	Summarize(ctx context.Context) (*domain.SalesSummary, error)
}

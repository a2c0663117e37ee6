package port

import (
	"context"

	"github.com/kwalram/textile-pos/internal/core/domain"
)

type CatalogRepository interface {
	// ListProducts returns all catalog records
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// GetProduct retrieves a product by ID, nil when absent
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// CreateProduct inserts a product and returns its assigned ID
	CreateProduct(ctx context.Context, p domain.Product) (string, error)

	// UpdateProduct replaces the product fields, returns false when absent
	UpdateProduct(ctx context.Context, id string, p domain.Product) (bool, error)

	// DeleteProduct removes a product, returns false when absent
	DeleteProduct(ctx context.Context, id string) (bool, error)
}

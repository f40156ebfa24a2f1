package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"
)

// ErrNotFound is returned when no record matches a key. A key that is not
// well-formed for the store is reported the same way.
var ErrNotFound = errors.New("record not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// GetAll returns every product, most recently created first.
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// Create assigns ID, CreatedAt and UpdatedAt before storing the product.
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

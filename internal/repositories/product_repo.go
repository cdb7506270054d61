package repositories

import (
	"context"

	"agromart/internal/models"
)

// ProductRepository defines the interface for catalog data access.
// CreateMany is all-or-nothing: a duplicate name anywhere in the batch
// (or against existing data) fails the whole insert.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	CreateMany(ctx context.Context, products []models.Product) error
	Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) (*models.Product, error)
}

package repositories

import (
	"context"

	"agromart/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// never deleted in normal flow.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id string, status string) (*models.Order, error)
}

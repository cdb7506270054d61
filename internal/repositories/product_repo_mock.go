package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"agromart/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns all products.
func (r *MockProductRepository) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return &product, nil
}

// Create adds a new product, rejecting duplicate names.
func (r *MockProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(product)
}

// CreateMany adds a batch of products. The whole batch is rejected if any
// name collides, mirroring an ordered InsertMany against a unique index.
func (r *MockProductRepository) CreateMany(_ context.Context, products []models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if seen[p.Name] {
			return fmt.Errorf("bulk insert: %w", ErrDuplicateKey)
		}
		seen[p.Name] = true
		for _, existing := range r.products {
			if existing.Name == p.Name {
				return fmt.Errorf("bulk insert: %w", ErrDuplicateKey)
			}
		}
	}
	for i := range products {
		if err := r.insertLocked(&products[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *MockProductRepository) insertLocked(product *models.Product) error {
	for _, existing := range r.products {
		if existing.Name == product.Name {
			return fmt.Errorf("product %s: %w", product.Name, ErrDuplicateKey)
		}
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Update applies only the supplied fields to an existing product.
func (r *MockProductRepository) Update(_ context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	if upd.Name != nil {
		product.Name = *upd.Name
	}
	if upd.Price != nil {
		product.Price = *upd.Price
	}
	if upd.Type != nil {
		product.Type = *upd.Type
	}
	product.UpdatedAt = time.Now().UTC()
	r.products[id] = product
	return &product, nil
}

// Delete removes a product by its ID and returns the removed record.
func (r *MockProductRepository) Delete(_ context.Context, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	return &product, nil
}

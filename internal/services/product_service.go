package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"agromart/internal/models"
	"agromart/internal/repositories"
)

// ProductService handles business logic for the catalog.
type ProductService struct {
	repo repositories.ProductRepository
	log  *zap.SugaredLogger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, log *zap.SugaredLogger) *ProductService {
	return &ProductService{
		repo: repo,
		log:  log,
	}
}

// GetAll retrieves all products.
func (s *ProductService) GetAll(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// Create adds a single product. Name, category and image reference are all
// required; price must be non-negative.
func (s *ProductService) Create(ctx context.Context, name string, price float64, productType, img string) (*models.Product, error) {
	name = strings.TrimSpace(name)
	productType = strings.TrimSpace(productType)
	img = strings.TrimSpace(img)
	if name == "" || productType == "" || img == "" {
		return nil, Validationf("name, price, type and image are all required")
	}
	if price < 0 {
		return nil, Validationf("price must not be negative")
	}

	product := &models.Product{
		Name:  name,
		Price: price,
		Type:  productType,
		Img:   img,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("product with this name already exists: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// BulkImportResult reports the outcome of a CSV import.
type BulkImportResult struct {
	Imported []models.Product `json:"imported"`
	Skipped  int              `json:"skipped"`
}

// BulkImportCSV parses the CSV file at path and inserts the valid rows in
// one batch. Rows missing name, price or type (or with an unparseable
// price) are skipped; the batch insert itself is all-or-nothing. The file
// is removed after processing regardless of outcome.
func (s *ProductService) BulkImportCSV(ctx context.Context, path string) (*BulkImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() {
		f.Close()
		if rmErr := os.Remove(path); rmErr != nil {
			s.log.Warnw("failed to remove CSV file after processing", "path", path, "error", rmErr)
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, Validationf("CSV file is empty or unreadable")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "price", "type"} {
		if _, ok := cols[required]; !ok {
			return nil, Validationf("CSV header must contain name, price and type columns")
		}
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	result := &BulkImportResult{Imported: make([]models.Product, 0)}
	products := make([]models.Product, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.log.Warnw("invalid CSV row skipped", "error", err)
			result.Skipped++
			continue
		}

		name := field(row, "name")
		priceStr := field(row, "price")
		productType := field(row, "type")
		if name == "" || priceStr == "" || productType == "" {
			s.log.Warnw("invalid row skipped", "row", row)
			result.Skipped++
			continue
		}
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			s.log.Warnw("row with bad price skipped", "row", row)
			result.Skipped++
			continue
		}

		img := field(row, "img")
		if img == "" {
			img = models.DefaultImage(productType)
		}
		products = append(products, models.Product{
			Name:  name,
			Price: price,
			Type:  productType,
			Img:   img,
		})
	}

	if err := s.repo.CreateMany(ctx, products); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("bulk import rejected: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to save products: %w", err)
	}

	result.Imported = products
	s.log.Infow("bulk import completed", "imported", len(products), "skipped", result.Skipped)
	return result, nil
}

// Update applies a partial update. At least one field must be supplied.
func (s *ProductService) Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	if upd.Empty() {
		return nil, Validationf("at least one field (name, price, type) is required to update")
	}
	if upd.Price != nil && *upd.Price < 0 {
		return nil, Validationf("price must not be negative")
	}

	product, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("product with this name already exists: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// Delete removes a product and returns the removed record.
func (s *ProductService) Delete(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	return product, nil
}

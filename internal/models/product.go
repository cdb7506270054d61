package models

import (
	"strings"
	"time"
)

// Placeholder images used when a product is created without one.
const (
	PlaceholderFruit     = "https://images.unsplash.com/photo-1601004890684-d8cbf643f5f2?auto=format&fit=crop&w=600&q=80"
	PlaceholderVegetable = "https://images.unsplash.com/photo-1518977956815-dee0061a4293?auto=format&fit=crop&w=600&q=80"
	PlaceholderGeneric   = "https://via.placeholder.com/150?text=Product+Image"
)

// Product represents a catalog entry. Name is unique across the catalog.
type Product struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	Price     float64   `json:"price" bson:"price"`
	Type      string    `json:"type" bson:"type"` // category label, e.g. "fruit" or "vegetable"
	Img       string    `json:"img" bson:"img"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// DefaultImage returns the placeholder image for a product category.
func DefaultImage(productType string) string {
	switch strings.ToLower(strings.TrimSpace(productType)) {
	case "fruit":
		return PlaceholderFruit
	case "vegetable":
		return PlaceholderVegetable
	default:
		return PlaceholderGeneric
	}
}

// ProductUpdate carries a partial update; only non-nil fields are applied.
type ProductUpdate struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
	Type  *string  `json:"type"`
}

// Empty reports whether no field was supplied at all.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Price == nil && u.Type == nil
}

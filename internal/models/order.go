package models

import "time"

// Order statuses. Transitions happen only through admin action.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
)

// ValidStatus reports whether s is one of the allowed order statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// OrderItem is a value snapshot of a product at order time. Later catalog
// edits or deletes do not alter past orders.
type OrderItem struct {
	Name     string  `json:"name" bson:"name" validate:"required"`
	Price    float64 `json:"price" bson:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" bson:"quantity" validate:"required,gt=0"`
}

// Order represents a placed customer order.
type Order struct {
	ID              string      `json:"id" bson:"_id,omitempty"`
	BuyerName       string      `json:"buyer_name" bson:"buyer_name"`
	BuyerContact    string      `json:"buyer_contact" bson:"buyer_contact"`
	DeliveryAddress string      `json:"delivery_address" bson:"delivery_address"`
	Items           []OrderItem `json:"items" bson:"items"`
	Status          string      `json:"status" bson:"status"`
	UserID          string      `json:"user_id" bson:"user_id"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" bson:"updated_at"`
}

// PlaceOrderRequest is the payload for placing an order. The owning user
// comes from the session token, never from the body.
type PlaceOrderRequest struct {
	BuyerName       string      `json:"buyer_name" validate:"required"`
	BuyerContact    string      `json:"buyer_contact" validate:"required"`
	DeliveryAddress string      `json:"delivery_address" validate:"required"`
	Items           []OrderItem `json:"items" validate:"required,min=1,dive"`
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"agromart/internal/models"
	"agromart/internal/repositories"
	"agromart/pkg/rabbitmq"
)

// EventPublisher publishes order lifecycle events to the message bus.
type EventPublisher interface {
	PublishOrderEvent(event string, payload map[string]interface{}) error
}

// OrderService handles order placement and the status workflow.
type OrderService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	publisher EventPublisher
	notifier  *Notifier
	log       *zap.SugaredLogger
}

// NewOrderService creates a new OrderService. publisher may be nil when no
// message bus is configured.
func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, publisher EventPublisher, notifier *Notifier, log *zap.SugaredLogger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		publisher: publisher,
		notifier:  notifier,
		log:       log,
	}
}

// Place persists a new order with status Pending owned by the caller.
func (s *OrderService) Place(ctx context.Context, userID string, req models.PlaceOrderRequest) (*models.Order, error) {
	if strings.TrimSpace(req.BuyerName) == "" ||
		strings.TrimSpace(req.BuyerContact) == "" ||
		strings.TrimSpace(req.DeliveryAddress) == "" ||
		len(req.Items) == 0 {
		return nil, Validationf("buyer_name, buyer_contact, delivery_address and items are all required")
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity <= 0 || item.Price < 0 {
			return nil, Validationf("each item needs a name, a positive quantity and a non-negative price")
		}
	}

	order := &models.Order{
		BuyerName:       strings.TrimSpace(req.BuyerName),
		BuyerContact:    strings.TrimSpace(req.BuyerContact),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		Items:           req.Items,
		Status:          models.StatusPending,
		UserID:          userID,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.publishEvent(rabbitmq.EventOrderCreated, map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})
	return order, nil
}

// GetAll retrieves all orders (admin listing).
func (s *OrderService) GetAll(ctx context.Context) ([]models.Order, error) {
	return s.orderRepo.GetAll(ctx)
}

// GetByUser retrieves the caller's own orders.
func (s *OrderService) GetByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUserID(ctx, userID)
}

// UpdateStatus persists the new status and then notifies the owning user by
// email, best-effort. Notification failure never rolls back the update.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, Validationf("invalid order status: %s", status)
	}

	order, err := s.orderRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.publishEvent(rabbitmq.EventOrderStatusUpdated, map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	})

	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		s.log.Warnw("order owner lookup failed, skipping notification", "order_id", order.ID, "error", err)
		return order, nil
	}
	if user.Email != "" {
		subject, html := StatusUpdateEmail(user.Username, order.ID, order.Status)
		s.notifier.Enqueue(user.Email, subject, html)
	}
	return order, nil
}

func (s *OrderService) publishEvent(event string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(event, payload); err != nil {
		s.log.Warnw("failed to publish order event", "event", event, "error", err)
	}
}

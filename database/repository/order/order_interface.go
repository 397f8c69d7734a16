package orderRepo

import (
	"context"

	"wellbe/models"
)

// OrderRepository defines methods for order data access.
type OrderRepository interface {
	// Create inserts an order. A clashing order number yields repository.ErrDuplicate.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// Update persists status, timestamps and notes.
	Update(ctx context.Context, order *models.Order) error
	ListByClient(ctx context.Context, clientID string) ([]models.Order, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]models.Order, error)
}

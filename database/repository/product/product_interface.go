package productRepo

import (
	"context"

	"wellbe/models"
)

// ProductRepository defines methods for catalogue lookups and inventory writes.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// FindByTitle returns the professional's products whose title matches name
	// case-insensitively: exact matches when any exist, otherwise substring
	// matches. Results are ordered by creation time.
	FindByTitle(ctx context.Context, professionalID, name string) ([]models.Product, error)
	// SaveInventory writes Stock and Sizes if the stored version still equals
	// product.Version, then bumps the version. A stale version yields
	// repository.ErrVersionConflict.
	SaveInventory(ctx context.Context, product *models.Product) error
}

package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wellbe/database/repository"
	"wellbe/models"
	"wellbe/utils"

	"go.uber.org/zap"
)

// resolveProduct finds the product an intent refers to. An explicit
// product id wins; otherwise the name is matched against the
// professional's catalogue.
func (s *DefaultOrderService) resolveProduct(ctx context.Context, professionalID string, intent models.PurchaseIntent) (*models.Product, error) {
	if intent.ProductID != "" {
		p, err := s.products.GetByID(ctx, intent.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, utils.NotFound("product %s not found", intent.ProductID)
			}
			return nil, err
		}
		if p.ProfessionalID != professionalID {
			return nil, utils.NotFound("product %s not found in this catalogue", intent.ProductID)
		}
		return p, nil
	}

	name := strings.TrimSpace(intent.ProductName)
	if name == "" {
		return nil, utils.InvalidInput("productName or productId is required")
	}
	candidates, err := s.products.FindByTitle(ctx, professionalID, name)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, utils.NotFound("no product matching %q", name)
	}
	for i := range candidates {
		if strings.EqualFold(candidates[i].Title, name) {
			return &candidates[i], nil
		}
	}
	if len(candidates) > 1 {
		s.logger.Warn("ambiguous product name, using oldest match",
			zap.String("name", name),
			zap.String("professionalId", professionalID),
			zap.Int("candidates", len(candidates)),
			zap.String("chosen", candidates[0].ID))
	}
	return &candidates[0], nil
}

// reserveStock takes quantity units of productID (in size, when the product
// is sized) and returns the product as written.
func (s *DefaultOrderService) reserveStock(ctx context.Context, productID, size string, quantity int) (*models.Product, error) {
	return s.adjustInventory(ctx, productID, func(p *models.Product) error {
		if p.HasSizes() {
			i := p.SizeIndex(size)
			if i < 0 {
				return utils.InvalidState("size %q is not available for %s", size, p.Title)
			}
			if p.Sizes[i].Stock < quantity {
				return utils.InvalidState("only %d left in size %s", p.Sizes[i].Stock, p.Sizes[i].Size)
			}
			p.Sizes[i].Stock -= quantity
			return nil
		}
		if p.Stock < quantity {
			return utils.InvalidState("only %d of %s left in stock", p.Stock, p.Title)
		}
		p.Stock -= quantity
		return nil
	})
}

// errSizeGone marks a return that has nowhere to go: the product is sized
// but no longer offers the size the item was sold in (or the item was sold
// before the product had sizes). Flat stock of a sized product is derived
// from its sizes, so those units cannot be put back.
var errSizeGone = errors.New("size no longer offered")

// releaseStock puts quantity units back. A product without sizes takes them
// into flat stock whatever size the item recorded.
func (s *DefaultOrderService) releaseStock(ctx context.Context, productID, size string, quantity int) error {
	_, err := s.adjustInventory(ctx, productID, func(p *models.Product) error {
		if p.HasSizes() {
			i := p.SizeIndex(size)
			if i < 0 {
				return fmt.Errorf("%w: size %q on product %s", errSizeGone, size, p.ID)
			}
			p.Sizes[i].Stock += quantity
			return nil
		}
		p.Stock += quantity
		return nil
	})
	return err
}

// adjustInventory applies change under optimistic concurrency. The flat
// stock of a sized product is always recomputed from its sizes.
func (s *DefaultOrderService) adjustInventory(ctx context.Context, productID string, change func(*models.Product) error) (*models.Product, error) {
	for attempt := 0; attempt < utils.MaxWriteRetries; attempt++ {
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, utils.NotFound("product %s not found", productID)
			}
			return nil, err
		}
		if err := change(p); err != nil {
			return nil, err
		}
		p.SyncStock()

		err = s.products.SaveInventory(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
		s.logger.Debug("inventory write lost a race, retrying",
			zap.String("productId", productID),
			zap.Int("attempt", attempt+1))
	}
	return nil, fmt.Errorf("product %s: %w after %d attempts", productID, repository.ErrVersionConflict, utils.MaxWriteRetries)
}

package order

import (
	"context"
	"errors"

	"wellbe/database/repository"
	"wellbe/models"
	"wellbe/utils"
)

func (s *DefaultOrderService) GetOrder(ctx context.Context, orderID string, actor models.Actor) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NotFound("order %s not found", orderID)
		}
		return nil, err
	}
	if actor.UserID == o.ClientID || actor.IsAdmin() {
		return o, nil
	}
	if pro, err := s.professionals.GetByUserID(ctx, actor.UserID); err == nil && pro.ID == o.ProfessionalID() {
		return o, nil
	}
	return nil, utils.Forbidden("not allowed to view order %s", orderID)
}

func (s *DefaultOrderService) ListOrders(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	if actor.Role == models.RoleProfessional {
		pro, err := s.professionals.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, utils.NotFound("no professional profile for user %s", actor.UserID)
			}
			return nil, err
		}
		return s.orders.ListByProfessional(ctx, pro.ID)
	}
	return s.orders.ListByClient(ctx, actor.UserID)
}

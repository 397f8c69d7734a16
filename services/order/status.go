package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wellbe/database/repository"
	"wellbe/models"
	"wellbe/services/notification"
	"wellbe/utils"

	"go.uber.org/zap"
)

var clientNotice = map[string]struct {
	title string
	kind  models.NotificationType
}{
	models.OrderPending:   {"Order updated", models.NotifyOrderStatusChanged},
	models.OrderShipped:   {"Order shipped", models.NotifyOrderShipped},
	models.OrderDelivered: {"Order delivered", models.NotifyOrderDelivered},
	models.OrderCancelled: {"Order cancelled", models.NotifyOrderCancelled},
}

// UpdateOrderStatus moves an order along. Cancelling with ReturnToStock puts
// every line item back into inventory.
func (s *DefaultOrderService) UpdateOrderStatus(ctx context.Context, in UpdateOrderStatusInput) (*models.Order, error) {
	if !models.ValidOrderStatus(in.Status) {
		return nil, utils.InvalidInput("status must be one of pending, shipped, delivered, cancelled")
	}
	o, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NotFound("order %s not found", in.OrderID)
		}
		return nil, err
	}
	pro, err := s.professionals.GetByUserID(ctx, in.ActorUserID)
	if err != nil || pro.ID != o.ProfessionalID() {
		return nil, utils.Forbidden("only the seller can update order %s", o.ID)
	}
	// Stock already went back on the first cancellation.
	if o.Status == models.OrderCancelled {
		return nil, utils.InvalidState("order %s is cancelled", o.ID)
	}

	now := s.now()
	o.Status = in.Status
	switch in.Status {
	case models.OrderShipped:
		o.ShippedAt = &now
	case models.OrderDelivered:
		o.DeliveredAt = &now
	case models.OrderCancelled:
		o.CancelledAt = &now
		if msg := strings.TrimSpace(in.CancellationMessage); msg != "" {
			o.Notes = appendNote(o.Notes, "Cancellation reason: "+msg)
		}
	}
	o.UpdatedAt = now

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("UpdateOrderStatus: %w", err)
	}
	s.logger.Info("order status updated", zap.String("orderId", o.ID), zap.String("status", o.Status))

	if o.Status == models.OrderCancelled && in.ReturnToStock {
		s.restoreStock(ctx, o)
	}

	notice := clientNotice[o.Status]
	data := map[string]any{"orderId": o.ID, "orderNumber": o.OrderNumber, "status": o.Status}
	clientMsg := fmt.Sprintf("Your order %s is now %s", o.OrderNumber, o.Status)
	if o.Status == models.OrderCancelled && in.CancellationMessage != "" {
		clientMsg += ": " + in.CancellationMessage
	}
	notification.Send(ctx, s.notifier, s.logger, notification.NotifyInput{
		RecipientID: o.ClientID,
		Title:       notice.title,
		Message:     clientMsg,
		Type:        notice.kind,
		Link:        "/orders/" + o.ID,
		Data:        data,
	})
	if o.Status == models.OrderDelivered || o.Status == models.OrderCancelled {
		notification.Send(ctx, s.notifier, s.logger, notification.NotifyInput{
			RecipientID: pro.UserID,
			Title:       notice.title,
			Message:     fmt.Sprintf("Order %s is %s", o.OrderNumber, o.Status),
			Type:        notice.kind,
			Link:        "/orders/" + o.ID,
			Data:        data,
		})
	}
	return o, nil
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

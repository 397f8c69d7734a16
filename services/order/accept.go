package order

import (
	"context"
	"errors"
	"fmt"

	"wellbe/database/repository"
	"wellbe/models"
	"wellbe/services/notification"
	"wellbe/services/numbering"
	"wellbe/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultRejectionReason = "The seller is unable to fulfil this order request."

// AcceptOrder reserves stock for a purchase intent, marks its message as
// processed and creates the order. If the order cannot be stored, the stock
// and the message are restored.
func (s *DefaultOrderService) AcceptOrder(ctx context.Context, in AcceptOrderInput) (*models.Order, error) {
	msg, err := s.loadMessage(ctx, in.MessageID, in.ActorUserID)
	if err != nil {
		return nil, err
	}
	if msg.Processed {
		return nil, utils.InvalidState("message %s has already been handled", msg.ID)
	}
	clientID, err := clientOf(msg, in.ClientID)
	if err != nil {
		return nil, err
	}

	intent := in.Intent
	if intent.ProductID == "" && intent.ProductName == "" && msg.PurchaseIntent != nil {
		intent = *msg.PurchaseIntent
	}
	quantity, err := coerceQuantity(intent.Quantity)
	if err != nil {
		return nil, err
	}

	pro, err := s.professionals.GetByUserID(ctx, in.ActorUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.Forbidden("user %s has no professional profile", in.ActorUserID)
		}
		return nil, err
	}
	product, err := s.resolveProduct(ctx, pro.ID, intent)
	if err != nil {
		return nil, err
	}

	product, err = s.reserveStock(ctx, product.ID, intent.Size, quantity)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := &models.Order{
		ID:            uuid.New().String(),
		ClientID:      clientID,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: models.PaymentCashOnDelivery,
		MessageID:     msg.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	item := models.OrderItem{
		ProductID:      product.ID,
		ProfessionalID: pro.ID,
		Title:          product.Title,
		Quantity:       quantity,
		Price:          product.Price,
		Currency:       product.Currency,
	}
	if intent.Price != nil {
		item.Price = *intent.Price
	}
	if intent.Currency != "" {
		item.Currency = intent.Currency
	}
	if product.HasSizes() {
		item.Size = product.Sizes[product.SizeIndex(intent.Size)].Size
	}
	o.Items = []models.OrderItem{item}
	o.TotalAmount = models.ItemsTotal(o.Items)
	o.Currency = item.Currency

	if err := s.messages.MarkProcessed(ctx, msg.ID, o.ID); err != nil {
		s.restoreStock(ctx, o)
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return nil, utils.InvalidState("message %s has already been handled", msg.ID)
		}
		return nil, fmt.Errorf("AcceptOrder: %w", err)
	}

	if err := s.insertOrder(ctx, o); err != nil {
		s.restoreStock(ctx, o)
		if reopenErr := s.messages.Reopen(ctx, msg.ID); reopenErr != nil {
			s.logger.Error("failed to reopen message after order insert failed",
				zap.String("messageId", msg.ID), zap.Error(reopenErr))
		}
		return nil, fmt.Errorf("AcceptOrder: %w", err)
	}

	s.logger.Info("order created",
		zap.String("orderId", o.ID),
		zap.String("orderNumber", o.OrderNumber),
		zap.String("productId", product.ID),
		zap.Int("quantity", quantity))

	data := map[string]any{"orderId": o.ID, "orderNumber": o.OrderNumber}
	notification.Send(ctx, s.notifier, s.logger, notification.NotifyInput{
		RecipientID: pro.UserID,
		Title:       "New order",
		Message:     fmt.Sprintf("Order %s: %d x %s", o.OrderNumber, quantity, product.Title),
		Type:        models.NotifyNewOrder,
		Link:        "/orders/" + o.ID,
		Data:        data,
	})
	notification.Send(ctx, s.notifier, s.logger, notification.NotifyInput{
		RecipientID: clientID,
		Title:       "Order placed",
		Message:     fmt.Sprintf("Your order %s for %s was accepted", o.OrderNumber, product.Title),
		Type:        models.NotifyOrderPlaced,
		Link:        "/orders/" + o.ID,
		Data:        data,
	})
	return o, nil
}

// insertOrder stores o under a fresh order number, drawing a new number when
// the previous one was already taken.
func (s *DefaultOrderService) insertOrder(ctx context.Context, o *models.Order) error {
	var err error
	for attempt := 0; attempt < utils.MaxWriteRetries; attempt++ {
		o.OrderNumber = numbering.OrderNumber(s.now())
		err = s.orders.Create(ctx, o)
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	return err
}

func (s *DefaultOrderService) restoreStock(ctx context.Context, o *models.Order) {
	for _, it := range o.Items {
		err := s.releaseStock(ctx, it.ProductID, it.Size, it.Quantity)
		if errors.Is(err, errSizeGone) {
			s.logger.Warn("stock not returned, size no longer offered",
				zap.String("orderId", o.ID),
				zap.String("productId", it.ProductID),
				zap.String("size", it.Size),
				zap.Int("quantity", it.Quantity))
			continue
		}
		if err != nil {
			s.logger.Error("failed to return stock",
				zap.String("orderId", o.ID),
				zap.String("productId", it.ProductID),
				zap.Int("quantity", it.Quantity),
				zap.Error(err))
		}
	}
}

// RejectOrder declines a purchase intent. No stock was reserved, so only the
// message changes.
func (s *DefaultOrderService) RejectOrder(ctx context.Context, in RejectOrderInput) error {
	msg, err := s.loadMessage(ctx, in.MessageID, in.ActorUserID)
	if err != nil {
		return err
	}
	clientID, err := clientOf(msg, in.ClientID)
	if err != nil {
		return err
	}
	reason := in.Reason
	if reason == "" {
		reason = defaultRejectionReason
	}

	if err := s.messages.MarkRejected(ctx, msg.ID, reason); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return utils.InvalidState("message %s has already been handled", msg.ID)
		}
		return fmt.Errorf("RejectOrder: %w", err)
	}

	productName := ""
	if msg.PurchaseIntent != nil {
		productName = msg.PurchaseIntent.ProductName
	}
	notification.Send(ctx, s.notifier, s.logger, notification.NotifyInput{
		RecipientID: clientID,
		Title:       "Order request declined",
		Message:     reason,
		Type:        models.NotifyOrderRejected,
		Data:        map[string]any{"messageId": msg.ID, "productName": productName},
	})
	return nil
}

// loadMessage returns the message when actorUserID is its recipient.
func (s *DefaultOrderService) loadMessage(ctx context.Context, messageID, actorUserID string) (*models.Message, error) {
	if messageID == "" {
		return nil, utils.InvalidInput("messageId is required")
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NotFound("message %s not found", messageID)
		}
		return nil, err
	}
	if msg.RecipientID != actorUserID {
		return nil, utils.Forbidden("only the recipient of message %s can act on it", messageID)
	}
	return msg, nil
}

// clientOf returns the buyer, which is always the message sender.
func clientOf(msg *models.Message, claimed string) (string, error) {
	if claimed != "" && claimed != msg.SenderID {
		return "", utils.InvalidInput("client %s did not send message %s", claimed, msg.ID)
	}
	return msg.SenderID, nil
}

package order

import (
	"context"
	"fmt"
	"time"

	messageRepo "wellbe/database/repository/message"
	orderRepo "wellbe/database/repository/order"
	productRepo "wellbe/database/repository/product"
	professionalRepo "wellbe/database/repository/professional"
	"wellbe/models"
	"wellbe/services/notification"

	"go.uber.org/zap"
)

// OrderService turns accepted purchase intents into orders and moves them
// through fulfilment.
type OrderService interface {
	AcceptOrder(ctx context.Context, in AcceptOrderInput) (*models.Order, error)
	RejectOrder(ctx context.Context, in RejectOrderInput) error
	UpdateOrderStatus(ctx context.Context, in UpdateOrderStatusInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID string, actor models.Actor) (*models.Order, error)
	ListOrders(ctx context.Context, actor models.Actor) ([]models.Order, error)
}

// AcceptOrderInput carries the intent being accepted. An empty Intent falls
// back to the one stored on the message.
type AcceptOrderInput struct {
	MessageID   string                `json:"messageId"`
	ClientID    string                `json:"clientId"`
	Intent      models.PurchaseIntent `json:"purchaseIntent"`
	ActorUserID string                `json:"-"`
}

type RejectOrderInput struct {
	MessageID   string `json:"messageId"`
	ClientID    string `json:"clientId"`
	Reason      string `json:"reason"`
	ActorUserID string `json:"-"`
}

type UpdateOrderStatusInput struct {
	OrderID             string `json:"-"`
	ActorUserID         string `json:"-"`
	Status              string `json:"status"`
	ReturnToStock       bool   `json:"returnToStock"`
	CancellationMessage string `json:"cancellationMessage"`
}

type Deps struct {
	Orders        orderRepo.OrderRepository
	Products      productRepo.ProductRepository
	Messages      messageRepo.MessageRepository
	Professionals professionalRepo.ProfessionalRepository
	Notifier      notification.NotificationService
	Logger        *zap.Logger
	Now           func() time.Time
}

// DefaultOrderService implements OrderService.
type DefaultOrderService struct {
	orders        orderRepo.OrderRepository
	products      productRepo.ProductRepository
	messages      messageRepo.MessageRepository
	professionals professionalRepo.ProfessionalRepository
	notifier      notification.NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

func NewDefaultOrderService(d Deps) (*DefaultOrderService, error) {
	if d.Orders == nil || d.Products == nil || d.Messages == nil || d.Professionals == nil {
		return nil, fmt.Errorf("order service initialization error: missing repository")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &DefaultOrderService{
		orders:        d.Orders,
		products:      d.Products,
		messages:      d.Messages,
		professionals: d.Professionals,
		notifier:      d.Notifier,
		logger:        d.Logger,
		now:           d.Now,
	}, nil
}

package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"wellbe/database/repository/memory"
	"wellbe/models"
	"wellbe/services/notification"
	"wellbe/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	svc   *DefaultOrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutProfessional(models.Professional{ID: "pro-1", UserID: "pro-user", BookingMode: models.BookingModeManual})
	store.PutProfessional(models.Professional{ID: "pro-2", UserID: "other-pro", BookingMode: models.BookingModeManual})
	store.PutProduct(models.Product{
		ID: "p-tee", ProfessionalID: "pro-1", Title: "Yoga Tee", Price: 30, Currency: "USD",
		Stock: 7, Sizes: []models.SizeStock{{Size: "S", Stock: 2}, {Size: "M", Stock: 5}},
		CreatedAt: now.Add(-48 * time.Hour),
	})
	store.PutProduct(models.Product{
		ID: "p-tee-long", ProfessionalID: "pro-1", Title: "Yoga Tee Long Sleeve", Price: 40, Currency: "USD",
		Stock: 4, CreatedAt: now.Add(-24 * time.Hour),
	})
	store.PutProduct(models.Product{
		ID: "p-mat", ProfessionalID: "pro-1", Title: "Cork Mat", Price: 55, Currency: "USD", Stock: 3,
		CreatedAt: now.Add(-72 * time.Hour),
	})

	notifier, err := notification.NewDefaultNotificationService(store.NotificationStore(), nil)
	require.NoError(t, err)
	svc, err := NewDefaultOrderService(Deps{
		Orders:        store.Orders(),
		Products:      store.Products(),
		Messages:      store.Messages(),
		Professionals: store.Professionals(),
		Notifier:      notifier,
		Now:           func() time.Time { return now },
	})
	require.NoError(t, err)
	return &fixture{store: store, svc: svc}
}

func (f *fixture) message(id string) {
	f.store.PutMessage(models.Message{
		ID: id, SenderID: "client-1", RecipientID: "pro-user", Type: models.MessageTypePurchaseIntent,
		PurchaseIntent: &models.PurchaseIntent{ProductName: "Yoga Tee", Size: "S", Quantity: float64(1)},
	})
}

func (f *fixture) accept(messageID string, intent models.PurchaseIntent) (*models.Order, error) {
	return f.svc.AcceptOrder(context.Background(), AcceptOrderInput{
		MessageID:   messageID,
		ClientID:    "client-1",
		Intent:      intent,
		ActorUserID: "pro-user",
	})
}

func (f *fixture) count(userID string, t models.NotificationType) int {
	n := 0
	for _, x := range f.store.Notifications() {
		if x.UserID == userID && x.Type == t {
			n++
		}
	}
	return n
}

func TestAcceptOrder_SizeStockTooLow(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")

	_, err := f.accept("m-1", models.PurchaseIntent{ProductName: "Yoga Tee", Size: "S", Quantity: 3})
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))

	p := f.store.Product("p-tee")
	assert.Equal(t, []models.SizeStock{{Size: "S", Stock: 2}, {Size: "M", Stock: 5}}, p.Sizes)
	assert.Equal(t, 7, p.Stock)
	assert.False(t, f.store.Message("m-1").Processed)
	assert.Zero(t, f.store.OrderCount())
}

func TestAcceptOrder_DecrementsSize(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")

	o, err := f.accept("m-1", models.PurchaseIntent{ProductName: "yoga tee", Size: "s", Quantity: float64(2)})
	require.NoError(t, err)

	p := f.store.Product("p-tee")
	assert.Equal(t, []models.SizeStock{{Size: "S", Stock: 0}, {Size: "M", Stock: 5}}, p.Sizes)
	assert.Equal(t, 5, p.Stock)

	assert.Equal(t, models.OrderPending, o.Status)
	assert.Equal(t, models.PaymentCashOnDelivery, o.PaymentMethod)
	assert.Equal(t, "client-1", o.ClientID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, models.OrderItem{
		ProductID: "p-tee", ProfessionalID: "pro-1", Title: "Yoga Tee",
		Quantity: 2, Price: 30, Currency: "USD", Size: "S",
	}, o.Items[0])
	assert.Equal(t, 60.0, o.TotalAmount)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-\d{1,3}$`), o.OrderNumber)

	msg := f.store.Message("m-1")
	assert.True(t, msg.Processed)
	assert.Equal(t, o.ID, msg.OrderID)

	assert.Equal(t, 1, f.count("pro-user", models.NotifyNewOrder))
	assert.Equal(t, 1, f.count("client-1", models.NotifyOrderPlaced))
}

func TestAcceptOrder_FlatStockAndIntentOverrides(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")
	f.message("m-2")

	_, err := f.accept("m-1", models.PurchaseIntent{ProductName: "Cork Mat", Quantity: "4"})
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))
	assert.Equal(t, 3, f.store.Product("p-mat").Stock)

	price := 50.0
	o, err := f.accept("m-2", models.PurchaseIntent{ProductName: "cork", Quantity: "3", Price: &price, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.Product("p-mat").Stock)
	assert.Equal(t, 150.0, o.TotalAmount)
	assert.Equal(t, "EUR", o.Currency)
}

func TestAcceptOrder_QuantityCoercion(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")

	for _, q := range []any{nil, 0, -1, 2.5, "two", true} {
		_, err := f.accept("m-1", models.PurchaseIntent{ProductName: "Cork Mat", Quantity: q})
		assert.Equal(t, utils.CodeInvalidInput, utils.CodeOf(err), "quantity %v", q)
	}
	assert.Equal(t, 3, f.store.Product("p-mat").Stock)
}

func TestAcceptOrder_ProductResolution(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 4; i++ {
		f.message(fmt.Sprintf("m-%d", i))
	}

	o, err := f.accept("m-1", models.PurchaseIntent{ProductName: "Yoga Tee", Size: "M", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "p-tee", o.Items[0].ProductID)

	o, err = f.accept("m-2", models.PurchaseIntent{ProductName: "long sleeve", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "p-tee-long", o.Items[0].ProductID)

	o, err = f.accept("m-3", models.PurchaseIntent{ProductID: "p-mat", ProductName: "whatever", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "p-mat", o.Items[0].ProductID)

	_, err = f.accept("m-4", models.PurchaseIntent{ProductName: "Kettlebell", Quantity: 1})
	assert.Equal(t, utils.CodeNotFound, utils.CodeOf(err))
}

func TestAcceptOrder_UsesStoredIntent(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")

	o, err := f.accept("m-1", models.PurchaseIntent{})
	require.NoError(t, err)
	assert.Equal(t, "S", o.Items[0].Size)
	assert.Equal(t, 1, f.store.Product("p-tee").Sizes[0].Stock)
}

func TestAcceptOrder_AccessAndState(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")
	ctx := context.Background()

	_, err := f.accept("missing", models.PurchaseIntent{ProductName: "Cork Mat", Quantity: 1})
	assert.Equal(t, utils.CodeNotFound, utils.CodeOf(err))

	_, err = f.svc.AcceptOrder(ctx, AcceptOrderInput{
		MessageID: "m-1", Intent: models.PurchaseIntent{ProductName: "Cork Mat", Quantity: 1}, ActorUserID: "other-pro",
	})
	assert.Equal(t, utils.CodeForbidden, utils.CodeOf(err))

	_, err = f.accept("m-1", models.PurchaseIntent{ProductName: "Cork Mat", Quantity: 1})
	require.NoError(t, err)

	_, err = f.accept("m-1", models.PurchaseIntent{ProductName: "Cork Mat", Quantity: 1})
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))
	assert.Equal(t, 2, f.store.Product("p-mat").Stock)
}

func TestAcceptOrder_CompensatesWhenOrderInsertFails(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")
	f.store.FailNextOrderCreate = errors.New("primary stepped down")

	_, err := f.accept("m-1", models.PurchaseIntent{ProductName: "Yoga Tee", Size: "M", Quantity: 2})
	require.Error(t, err)

	p := f.store.Product("p-tee")
	assert.Equal(t, 5, p.Sizes[1].Stock)
	assert.Equal(t, 7, p.Stock)
	msg := f.store.Message("m-1")
	assert.False(t, msg.Processed)
	assert.Empty(t, msg.OrderID)
	assert.Zero(t, f.store.OrderCount())
}

func TestAcceptOrder_ConcurrentAcceptsNeverOversell(t *testing.T) {
	f := newFixture(t)
	const n = 6
	for i := 0; i < n; i++ {
		f.message(fmt.Sprintf("m-%d", i))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.accept(fmt.Sprintf("m-%d", i), models.PurchaseIntent{ProductName: "Cork Mat", Quantity: 1}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, succeeded, 3)
	assert.Equal(t, 3-succeeded, f.store.Product("p-mat").Stock)
	assert.Equal(t, succeeded, f.store.OrderCount())
}

func TestRejectOrder(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")
	ctx := context.Background()

	err := f.svc.RejectOrder(ctx, RejectOrderInput{MessageID: "m-1", ActorUserID: "other-pro"})
	assert.Equal(t, utils.CodeForbidden, utils.CodeOf(err))

	require.NoError(t, f.svc.RejectOrder(ctx, RejectOrderInput{MessageID: "m-1", ClientID: "client-1", ActorUserID: "pro-user"}))

	msg := f.store.Message("m-1")
	assert.True(t, msg.Processed)
	assert.True(t, msg.Rejected)
	assert.Equal(t, defaultRejectionReason, msg.RejectionReason)
	assert.Equal(t, 7, f.store.Product("p-tee").Stock)
	assert.Zero(t, f.store.OrderCount())
	assert.Equal(t, 1, f.count("client-1", models.NotifyOrderRejected))

	err = f.svc.RejectOrder(ctx, RejectOrderInput{MessageID: "missing", ActorUserID: "pro-user"})
	assert.Equal(t, utils.CodeNotFound, utils.CodeOf(err))
}

func TestUpdateOrderStatus_CancelReturnsStock(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")
	ctx := context.Background()

	o, err := f.accept("m-1", models.PurchaseIntent{ProductName: "Yoga Tee", Size: "S", Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, 5, f.store.Product("p-tee").Stock)

	cancelled, err := f.svc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{
		OrderID:             o.ID,
		ActorUserID:         "pro-user",
		Status:              models.OrderCancelled,
		ReturnToStock:       true,
		CancellationMessage: "out of dye",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Contains(t, cancelled.Notes, "out of dye")

	p := f.store.Product("p-tee")
	assert.Equal(t, []models.SizeStock{{Size: "S", Stock: 2}, {Size: "M", Stock: 5}}, p.Sizes)
	assert.Equal(t, 7, p.Stock)

	assert.Equal(t, 1, f.count("client-1", models.NotifyOrderCancelled))
	assert.Equal(t, 1, f.count("pro-user", models.NotifyOrderCancelled))

	_, err = f.svc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: o.ID, ActorUserID: "pro-user", Status: models.OrderCancelled, ReturnToStock: true})
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))
	assert.Equal(t, 7, f.store.Product("p-tee").Stock)
}

func TestUpdateOrderStatus_FlatReturnAndShipping(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")
	f.message("m-2")
	ctx := context.Background()

	o, err := f.accept("m-1", models.PurchaseIntent{ProductName: "Cork Mat", Quantity: 2})
	require.NoError(t, err)

	_, err = f.svc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: o.ID, ActorUserID: "pro-user", Status: "lost"})
	assert.Equal(t, utils.CodeInvalidInput, utils.CodeOf(err))

	_, err = f.svc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: o.ID, ActorUserID: "other-pro", Status: models.OrderShipped})
	assert.Equal(t, utils.CodeForbidden, utils.CodeOf(err))

	_, err = f.svc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: "missing", ActorUserID: "pro-user", Status: models.OrderShipped})
	assert.Equal(t, utils.CodeNotFound, utils.CodeOf(err))

	shipped, err := f.svc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: o.ID, ActorUserID: "pro-user", Status: models.OrderShipped})
	require.NoError(t, err)
	assert.NotNil(t, shipped.ShippedAt)
	assert.Equal(t, 1, f.count("client-1", models.NotifyOrderShipped))
	assert.Zero(t, f.count("pro-user", models.NotifyOrderShipped))

	_, err = f.svc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: o.ID, ActorUserID: "pro-user", Status: models.OrderCancelled, ReturnToStock: true})
	require.NoError(t, err)
	assert.Equal(t, 3, f.store.Product("p-mat").Stock)
}

func TestUpdateOrderStatus_ReturnAfterCatalogueChange(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")
	f.message("m-2")
	ctx := context.Background()
	cancel := func(orderID string) {
		t.Helper()
		_, err := f.svc.UpdateOrderStatus(ctx, UpdateOrderStatusInput{
			OrderID: orderID, ActorUserID: "pro-user", Status: models.OrderCancelled, ReturnToStock: true,
		})
		require.NoError(t, err)
	}

	// sizes dropped: the units go back to flat stock
	first, err := f.accept("m-1", models.PurchaseIntent{ProductName: "Yoga Tee", Size: "S", Quantity: 1})
	require.NoError(t, err)
	p := f.store.Product("p-tee")
	p.Sizes = nil
	p.Stock = 10
	f.store.PutProduct(p)

	cancel(first.ID)
	assert.Equal(t, 11, f.store.Product("p-tee").Stock)

	// sold size withdrawn: nothing is returned and the sizes stay consistent
	second, err := f.accept("m-2", models.PurchaseIntent{ProductName: "Yoga Tee", Quantity: 2})
	require.NoError(t, err)
	p = f.store.Product("p-tee")
	p.Sizes = []models.SizeStock{{Size: "M", Stock: 4}}
	p.SyncStock()
	f.store.PutProduct(p)

	cancel(second.ID)
	p = f.store.Product("p-tee")
	assert.Equal(t, []models.SizeStock{{Size: "M", Stock: 4}}, p.Sizes)
	assert.Equal(t, 4, p.Stock)
}

func TestGetAndListOrders(t *testing.T) {
	f := newFixture(t)
	f.message("m-1")
	ctx := context.Background()

	o, err := f.accept("m-1", models.PurchaseIntent{ProductName: "Cork Mat", Quantity: 1})
	require.NoError(t, err)

	got, err := f.svc.GetOrder(ctx, o.ID, models.Actor{UserID: "client-1", Role: models.RoleClient})
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)

	_, err = f.svc.GetOrder(ctx, o.ID, models.Actor{UserID: "other-pro", Role: models.RoleProfessional})
	assert.Equal(t, utils.CodeForbidden, utils.CodeOf(err))

	list, err := f.svc.ListOrders(ctx, models.Actor{UserID: "pro-user", Role: models.RoleProfessional})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.svc.ListOrders(ctx, models.Actor{UserID: "other-pro", Role: models.RoleProfessional})
	require.NoError(t, err)
	assert.Empty(t, list)
}

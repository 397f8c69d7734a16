package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"wellbe/database/repository/memory"
	"wellbe/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	got  []string
	fail bool
}

func (p *recordingPublisher) Publish(_ context.Context, userID string, n *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, userID+":"+string(n.Type))
	if p.fail {
		return errors.New("socket closed")
	}
	return nil
}

func TestNotify_StoresThenPublishes(t *testing.T) {
	store := memory.NewStore()
	live := &recordingPublisher{}
	broken := &recordingPublisher{fail: true}
	svc, err := NewDefaultNotificationService(store.NotificationStore(), nil, live, broken)
	require.NoError(t, err)

	n, err := svc.Notify(context.Background(), NotifyInput{
		RecipientID: "u-1",
		Title:       "Order shipped",
		Message:     "On its way",
		Type:        models.NotifyOrderShipped,
		Data:        map[string]any{"orderId": "o-1"},
	})
	require.NoError(t, err)
	svc.Wait()

	assert.NotEmpty(t, n.ID)
	assert.False(t, n.Read)
	assert.Equal(t, []string{"u-1:order_shipped"}, live.got)
	assert.Equal(t, []string{"u-1:order_shipped"}, broken.got)

	stored := store.Notifications()
	require.Len(t, stored, 1)
	assert.Equal(t, "o-1", stored[0].Data["orderId"])
}

func TestNotify_UnknownTypeFallsBackToSystem(t *testing.T) {
	store := memory.NewStore()
	svc, err := NewDefaultNotificationService(store.NotificationStore(), nil)
	require.NoError(t, err)

	n, err := svc.Notify(context.Background(), NotifyInput{RecipientID: "u-1", Type: "birthday"})
	require.NoError(t, err)
	assert.Equal(t, models.NotifySystem, n.Type)

	_, err = svc.Notify(context.Background(), NotifyInput{})
	assert.Error(t, err)
}

func TestListMarkReadAndExists(t *testing.T) {
	store := memory.NewStore()
	svc, err := NewDefaultNotificationService(store.NotificationStore(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Notify(ctx, NotifyInput{RecipientID: "u-1", Type: models.NotifyEventReviewRequest, Data: map[string]any{"sessionId": "s-1"}})
	require.NoError(t, err)
	_, err = svc.Notify(ctx, NotifyInput{RecipientID: "u-1", Type: models.NotifyNewOrder})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, "u-1", first.ID))
	assert.Error(t, svc.MarkRead(ctx, "u-2", first.ID))

	all, err := svc.List(ctx, "u-1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	unread, err := svc.List(ctx, "u-1", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, models.NotifyNewOrder, unread[0].Type)

	ok, err := svc.HasNotification(ctx, "u-1", models.NotifyEventReviewRequest, "sessionId", "s-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.HasNotification(ctx, "u-1", models.NotifyEventReviewRequest, "sessionId", "s-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSend_SwallowsErrors(t *testing.T) {
	assert.NotPanics(t, func() {
		Send(context.Background(), nil, nil, NotifyInput{RecipientID: "u-1"})
	})

	store := memory.NewStore()
	svc, err := NewDefaultNotificationService(store.NotificationStore(), nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		Send(context.Background(), svc, nil, NotifyInput{})
	})
}

func TestPushData(t *testing.T) {
	data := pushData(&models.Notification{
		ID: "n-1", Type: models.NotifyNewBooking, Link: "/bookings/b-1",
		Data: map[string]any{"bookingId": "b-1", "amount": 25.5, "none": nil},
	})
	assert.Equal(t, map[string]string{
		"notificationId": "n-1",
		"type":           "new_booking",
		"link":           "/bookings/b-1",
		"bookingId":      "b-1",
		"amount":         "25.5",
	}, data)
}

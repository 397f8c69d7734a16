package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wellbe/database/repository/memory"
	"wellbe/models"
	"wellbe/services/notification"
	"wellbe/services/numbering"
	"wellbe/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type recordingMailer struct {
	mu   sync.Mutex
	sent []models.Email
}

func (m *recordingMailer) Enabled() bool { return true }

func (m *recordingMailer) Send(_ context.Context, e models.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

type fakeGateway struct {
	verifyErr error
	refunds   []string
}

func (g *fakeGateway) VerifyPayment(context.Context, string, float64) error { return g.verifyErr }

func (g *fakeGateway) Refund(_ context.Context, reference string, amount float64) error {
	g.refunds = append(g.refunds, fmt.Sprintf("%s:%.2f", reference, amount))
	return nil
}

type fixture struct {
	store   *memory.Store
	svc     *DefaultBookingService
	mailer  *recordingMailer
	gateway *fakeGateway
}

func newFixture(t *testing.T, mode string, maxParticipants int) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutProfessional(models.Professional{ID: "pro-1", UserID: "pro-user", BusinessName: "Calm Studio", Email: "studio@example.com", BookingMode: mode})
	store.PutUser(models.User{ID: "client-1", Email: "ana@example.com", Role: models.RoleClient})
	store.PutSession(models.Session{
		ID:              "sess-1",
		ProfessionalID:  "pro-1",
		Title:           "Sunrise Yoga",
		Duration:        60,
		Price:           25,
		Currency:        "USD",
		StartsAt:        now.Add(24 * time.Hour),
		EndsAt:          now.Add(25 * time.Hour),
		MaxParticipants: maxParticipants,
	})

	notifier, err := notification.NewDefaultNotificationService(store.NotificationStore(), nil)
	require.NoError(t, err)

	f := &fixture{store: store, mailer: &recordingMailer{}, gateway: &fakeGateway{}}
	f.svc, err = NewDefaultBookingService(Deps{
		Bookings:      store.Bookings(),
		Sessions:      store.Sessions(),
		Professionals: store.Professionals(),
		Users:         store.Users(),
		Numbers:       &numbering.Generator{Counters: store.Counters()},
		Notifier:      notifier,
		Mailer:        f.mailer,
		Gateway:       f.gateway,
		Now:           func() time.Time { return now },
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) book(clientID string) (*models.Booking, error) {
	return f.svc.CreateBooking(context.Background(), CreateBookingInput{
		ClientID:       clientID,
		ProfessionalID: "pro-1",
		SessionID:      "sess-1",
	})
}

func (f *fixture) notificationsOf(userID string, t models.NotificationType) []models.Notification {
	var out []models.Notification
	for _, n := range f.store.Notifications() {
		if n.UserID == userID && n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func TestCreateBooking_CapacityLimit(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 3)

	for i := 1; i <= 3; i++ {
		b, err := f.book(fmt.Sprintf("client-%d", i))
		require.NoError(t, err)
		assert.Equal(t, models.BookingPending, b.Status)
		assert.Equal(t, fmt.Sprintf("BK20260310%04d", i), b.BookingNumber)
	}

	_, err := f.book("client-4")
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))

	sess := f.store.Session("sess-1")
	assert.Len(t, sess.Participants, 3)
	for _, p := range sess.Participants {
		assert.Equal(t, models.ParticipantPending, p.Status)
	}
}

func TestCreateBooking_AutoModeTakesLastSeat(t *testing.T) {
	f := newFixture(t, models.BookingModeAuto, 2)
	sess := f.store.Session("sess-1")
	sess.Participants = []models.Participant{{UserID: "early", Status: models.ParticipantConfirmed, Quantity: 1, JoinedAt: now}}
	f.store.PutSession(sess)

	b, err := f.book("client-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, b.Status)
	assert.Equal(t, "Sunrise Yoga", b.Service.Name)
	assert.Equal(t, 25.0, b.Service.Price)

	full := f.store.Session("sess-1")
	assert.True(t, full.IsFull())

	_, err = f.book("client-2")
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))
}

func TestCreateBooking_DuplicateUntilCancelled(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)

	first, err := f.book("client-1")
	require.NoError(t, err)

	_, err = f.book("client-1")
	assert.Equal(t, utils.CodeConflict, utils.CodeOf(err))

	_, err = f.svc.CancelBooking(context.Background(), CancelBookingInput{
		BookingID: first.ID,
		Actor:     models.Actor{UserID: "client-1", Role: models.RoleClient},
	})
	require.NoError(t, err)

	again, err := f.book("client-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.BookingNumber, again.BookingNumber)
}

func TestCreateBooking_Failures(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, CreateBookingInput{ClientID: "c", ProfessionalID: "nobody", SessionID: "sess-1"})
	assert.Equal(t, utils.CodeNotFound, utils.CodeOf(err))

	_, err = f.svc.CreateBooking(ctx, CreateBookingInput{ClientID: "c", ProfessionalID: "pro-1", SessionID: "missing"})
	assert.Equal(t, utils.CodeNotFound, utils.CodeOf(err))

	_, err = f.svc.CreateBooking(ctx, CreateBookingInput{ClientID: "c", ProfessionalID: "pro-1", SessionID: "sess-1", BookingType: "walk_in"})
	assert.Equal(t, utils.CodeInvalidInput, utils.CodeOf(err))

	past := f.store.Session("sess-1")
	past.StartsAt = now.Add(-2 * time.Hour)
	past.EndsAt = now.Add(-time.Hour)
	f.store.PutSession(past)
	_, err = f.book("client-1")
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))
}

func TestCreateBooking_ReleasesSeatWhenInsertFails(t *testing.T) {
	f := newFixture(t, models.BookingModeAuto, 5)
	f.store.FailNextBookingCreate = errors.New("write concern timeout")

	_, err := f.book("client-1")
	require.Error(t, err)
	assert.Empty(t, f.store.Session("sess-1").Participants)

	_, err = f.book("client-1")
	assert.NoError(t, err)
}

func TestCreateBooking_NotifiesAndEmails(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)

	b, err := f.book("client-1")
	require.NoError(t, err)

	got := f.notificationsOf("pro-user", models.NotifyNewBooking)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].Data["bookingId"])

	require.Len(t, f.mailer.sent, 2)
	assert.Equal(t, "ana@example.com", f.mailer.sent[0].To)
	assert.Equal(t, "studio@example.com", f.mailer.sent[1].To)
}

func TestCreateBooking_MessageOnlyWaitsForConfirmation(t *testing.T) {
	f := newFixture(t, models.BookingModeAuto, 5)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, CreateBookingInput{
		ClientID:       "client-1",
		ProfessionalID: "pro-1",
		SessionID:      "sess-1",
		BookingType:    models.BookingTypeMessage,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Empty(t, f.store.Session("sess-1").Participants)

	_, err = f.svc.UpdateBookingStatus(ctx, UpdateStatusInput{
		BookingID: b.ID,
		Actor:     models.Actor{UserID: "client-1", Role: models.RoleClient},
		Status:    models.BookingConfirmed,
	})
	assert.Equal(t, utils.CodeForbidden, utils.CodeOf(err))

	confirmed, err := f.svc.UpdateBookingStatus(ctx, UpdateStatusInput{
		BookingID: b.ID,
		Actor:     models.Actor{UserID: "pro-user", Role: models.RoleProfessional},
		Status:    models.BookingConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)

	sess := f.store.Session("sess-1")
	require.Len(t, sess.Participants, 1)
	assert.Equal(t, models.ParticipantConfirmed, sess.Participants[0].Status)
	assert.Len(t, f.notificationsOf("client-1", models.NotifyBookingConfirmed), 1)
}

func TestCancelBooking(t *testing.T) {
	f := newFixture(t, models.BookingModeAuto, 5)
	ctx := context.Background()

	b, err := f.book("client-1")
	require.NoError(t, err)
	require.Len(t, f.store.Session("sess-1").Participants, 1)

	_, err = f.svc.CancelBooking(ctx, CancelBookingInput{BookingID: b.ID, Actor: models.Actor{UserID: "stranger"}})
	assert.Equal(t, utils.CodeForbidden, utils.CodeOf(err))

	cancelled, err := f.svc.CancelBooking(ctx, CancelBookingInput{
		BookingID: b.ID,
		Actor:     models.Actor{UserID: "pro-user", Role: models.RoleProfessional},
		Reason:    "instructor unwell",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Equal(t, "pro-user", cancelled.Cancellation.CancelledBy)
	assert.Empty(t, f.store.Session("sess-1").Participants)

	got := f.notificationsOf("client-1", models.NotifyAppointmentCancelled)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "instructor unwell")
	assert.Empty(t, f.notificationsOf("pro-user", models.NotifyAppointmentCancelled))

	_, err = f.svc.CancelBooking(ctx, CancelBookingInput{BookingID: b.ID, Actor: models.Actor{UserID: "client-1"}})
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))

	_, err = f.svc.CancelBooking(ctx, CancelBookingInput{BookingID: "missing", Actor: models.Actor{UserID: "client-1"}})
	assert.Equal(t, utils.CodeNotFound, utils.CodeOf(err))
}

func TestCancelBooking_PendingMessageBookingKeepsJoinedSeat(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)
	ctx := context.Background()
	putMessageBooking(f, "b-msg", "client-1", models.BookingPending)

	sess := f.store.Session("sess-1")
	sess.Participants = []models.Participant{{UserID: "client-1", Status: models.ParticipantConfirmed, Quantity: 2}}
	f.store.PutSession(sess)

	_, err := f.svc.CancelBooking(ctx, CancelBookingInput{BookingID: "b-msg", Actor: models.Actor{UserID: "client-1"}})
	require.NoError(t, err)

	parts := f.store.Session("sess-1").Participants
	require.Len(t, parts, 1)
	assert.Equal(t, 2, parts[0].Quantity)
}

func TestCancelBooking_ConfirmedMessageBookingReleasesSeat(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)
	ctx := context.Background()
	putMessageBooking(f, "b-msg", "client-1", models.BookingPending)

	_, err := f.svc.UpdateBookingStatus(ctx, UpdateStatusInput{
		BookingID: "b-msg",
		Actor:     models.Actor{UserID: "pro-user", Role: models.RoleProfessional},
		Status:    models.BookingConfirmed,
	})
	require.NoError(t, err)
	require.Len(t, f.store.Session("sess-1").Participants, 1)

	_, err = f.svc.CancelBooking(ctx, CancelBookingInput{BookingID: "b-msg", Actor: models.Actor{UserID: "client-1"}})
	require.NoError(t, err)
	assert.Empty(t, f.store.Session("sess-1").Participants)
}

func TestCancelBooking_CompletedIsRejected(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)
	f.store.PutBooking(models.Booking{ID: "done", ClientID: "client-1", ProfessionalID: "pro-1", Status: models.BookingCompleted})

	_, err := f.svc.CancelBooking(context.Background(), CancelBookingInput{BookingID: "done", Actor: models.Actor{UserID: "client-1"}})
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))
}

func TestCancelBooking_RefundsFullPrice(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)
	ctx := context.Background()

	b, err := f.book("client-1")
	require.NoError(t, err)
	_, err = f.svc.ProcessPayment(ctx, ProcessPaymentInput{BookingID: b.ID, PayerID: "client-1", PaymentMethod: "card", PaymentReference: "pi_123"})
	require.NoError(t, err)

	cancelled, err := f.svc.CancelBooking(ctx, CancelBookingInput{BookingID: b.ID, Actor: models.Actor{UserID: "client-1"}, Refund: true})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, cancelled.PaymentStatus)
	require.NotNil(t, cancelled.Cancellation.RefundAmount)
	assert.Equal(t, 25.0, *cancelled.Cancellation.RefundAmount)
	assert.Equal(t, []string{"pi_123:25.00"}, f.gateway.refunds)
	assert.Len(t, f.notificationsOf("pro-user", models.NotifyAppointmentCancelled), 1)
}

func TestProcessPayment(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)
	ctx := context.Background()

	b, err := f.book("client-1")
	require.NoError(t, err)

	_, err = f.svc.ProcessPayment(ctx, ProcessPaymentInput{BookingID: b.ID, PayerID: "someone-else"})
	assert.Equal(t, utils.CodeForbidden, utils.CodeOf(err))

	paid, err := f.svc.ProcessPayment(ctx, ProcessPaymentInput{BookingID: b.ID, PayerID: "client-1", PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, models.BookingPending, paid.Status, "manual mode never auto-confirms")
	assert.Empty(t, f.notificationsOf("client-1", models.NotifyBookingConfirmed))

	_, err = f.svc.ProcessPayment(ctx, ProcessPaymentInput{BookingID: b.ID, PayerID: "client-1"})
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))
}

func TestProcessPayment_AutoConfirms(t *testing.T) {
	f := newFixture(t, models.BookingModeAuto, 5)
	ctx := context.Background()
	f.store.PutBooking(models.Booking{
		ID: "b-1", ClientID: "client-1", ProfessionalID: "pro-1",
		Service:       models.ServiceSnapshot{Name: "Sunrise Yoga", Price: 25, SessionID: "sess-1"},
		BookingType:   models.BookingTypeSession,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
	})
	sess := f.store.Session("sess-1")
	sess.Participants = []models.Participant{{UserID: "client-1", Status: models.ParticipantPending, Quantity: 1}}
	f.store.PutSession(sess)

	paid, err := f.svc.ProcessPayment(ctx, ProcessPaymentInput{BookingID: "b-1", PayerID: "client-1"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, paid.Status)
	assert.Equal(t, models.ParticipantConfirmed, f.store.Session("sess-1").Participants[0].Status)
	assert.Len(t, f.notificationsOf("client-1", models.NotifyBookingConfirmed), 1)
	assert.Len(t, f.notificationsOf("pro-user", models.NotifyPaymentReceived), 1)
}

func putMessageBooking(f *fixture, id, clientID, status string) {
	f.store.PutBooking(models.Booking{
		ID: id, BookingNumber: "BK-" + id, ClientID: clientID, ProfessionalID: "pro-1",
		Service:       models.ServiceSnapshot{Name: "Sunrise Yoga", Price: 25, SessionID: "sess-1"},
		BookingType:   models.BookingTypeMessage,
		Status:        status,
		PaymentStatus: models.PaymentPending,
	})
}

func TestProcessPayment_MessageBookingSeatsOnAutoConfirm(t *testing.T) {
	f := newFixture(t, models.BookingModeAuto, 2)
	putMessageBooking(f, "b-msg", "client-2", models.BookingPending)

	paid, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentInput{BookingID: "b-msg", PayerID: "client-2"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, paid.Status)

	parts := f.store.Session("sess-1").Participants
	require.Len(t, parts, 1)
	assert.Equal(t, "client-2", parts[0].UserID)
	assert.Equal(t, models.ParticipantConfirmed, parts[0].Status)
	assert.Len(t, f.notificationsOf("client-2", models.NotifyBookingConfirmed), 1)
}

func TestProcessPayment_FullSessionLeavesMessageBookingPending(t *testing.T) {
	f := newFixture(t, models.BookingModeAuto, 1)
	ctx := context.Background()
	putMessageBooking(f, "b-msg", "client-2", models.BookingPending)

	_, err := f.book("client-1")
	require.NoError(t, err)

	paid, err := f.svc.ProcessPayment(ctx, ProcessPaymentInput{BookingID: "b-msg", PayerID: "client-2"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, paid.Status)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)

	parts := f.store.Session("sess-1").Participants
	require.Len(t, parts, 1)
	assert.Equal(t, "client-1", parts[0].UserID)
	assert.Empty(t, f.notificationsOf("client-2", models.NotifyBookingConfirmed))
	assert.Len(t, f.notificationsOf("pro-user", models.NotifyPaymentReceived), 1)
}

func TestProcessPayment_CardVerification(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)
	ctx := context.Background()
	b, err := f.book("client-1")
	require.NoError(t, err)

	_, err = f.svc.ProcessPayment(ctx, ProcessPaymentInput{BookingID: b.ID, PayerID: "client-1", PaymentMethod: "card"})
	assert.Equal(t, utils.CodeInvalidInput, utils.CodeOf(err))

	f.gateway.verifyErr = errors.New("requires_payment_method")
	_, err = f.svc.ProcessPayment(ctx, ProcessPaymentInput{BookingID: b.ID, PayerID: "client-1", PaymentMethod: "card", PaymentReference: "pi_bad"})
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))
}

func TestUpdateBookingStatus_Transitions(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)
	ctx := context.Background()
	pro := models.Actor{UserID: "pro-user", Role: models.RoleProfessional}

	b, err := f.book("client-1")
	require.NoError(t, err)

	_, err = f.svc.UpdateBookingStatus(ctx, UpdateStatusInput{BookingID: b.ID, Actor: pro, Status: models.BookingCompleted})
	assert.Equal(t, utils.CodeInvalidState, utils.CodeOf(err))

	_, err = f.svc.UpdateBookingStatus(ctx, UpdateStatusInput{BookingID: b.ID, Actor: pro, Status: "archived"})
	assert.Equal(t, utils.CodeInvalidInput, utils.CodeOf(err))

	_, err = f.svc.UpdateBookingStatus(ctx, UpdateStatusInput{BookingID: b.ID, Actor: pro, Status: models.BookingConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantConfirmed, f.store.Session("sess-1").Participants[0].Status)

	done, err := f.svc.UpdateBookingStatus(ctx, UpdateStatusInput{BookingID: b.ID, Actor: pro, Status: models.BookingCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, done.Status)
	assert.Len(t, f.notificationsOf("client-1", models.NotifyBookingCompleted), 1)
}

func TestGetAndListBookings(t *testing.T) {
	f := newFixture(t, models.BookingModeManual, 5)
	ctx := context.Background()

	b, err := f.book("client-1")
	require.NoError(t, err)
	_, err = f.book("client-2")
	require.NoError(t, err)

	got, err := f.svc.GetBooking(ctx, b.ID, models.Actor{UserID: "pro-user", Role: models.RoleProfessional})
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.GetBooking(ctx, b.ID, models.Actor{UserID: "client-2", Role: models.RoleClient})
	assert.Equal(t, utils.CodeForbidden, utils.CodeOf(err))

	mine, err := f.svc.ListBookings(ctx, models.Actor{UserID: "client-1", Role: models.RoleClient})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.ListBookings(ctx, models.Actor{UserID: "pro-user", Role: models.RoleProfessional})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

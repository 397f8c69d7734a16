package booking

import (
	"context"
	"fmt"

	"wellbe/models"
	"wellbe/services/notification"
	"wellbe/services/payment"
	"wellbe/utils"

	"go.uber.org/zap"
)

const defaultPaymentMethod = "cash"

// ProcessPayment marks the booking paid. A pending booking of an auto-mode
// professional is confirmed at the same time.
func (s *DefaultBookingService) ProcessPayment(ctx context.Context, in ProcessPaymentInput) (*models.Booking, error) {
	b, err := s.loadBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if in.PayerID != b.ClientID {
		return nil, utils.Forbidden("only the booking's client can pay for it")
	}
	switch b.Status {
	case models.BookingCancelled, models.BookingNoShow:
		return nil, utils.InvalidState("booking %s is %s", b.ID, b.Status)
	}
	switch b.PaymentStatus {
	case models.PaymentPaid, models.PaymentRefunded:
		return nil, utils.InvalidState("booking %s is already %s", b.ID, b.PaymentStatus)
	}

	method := in.PaymentMethod
	if method == "" {
		method = defaultPaymentMethod
	}
	if method == payment.MethodCard && s.gateway != nil {
		if in.PaymentReference == "" {
			return nil, utils.InvalidInput("paymentReference is required for card payments")
		}
		if err := s.gateway.VerifyPayment(ctx, in.PaymentReference, b.Service.Price); err != nil {
			s.logger.Warn("card payment verification failed",
				zap.String("bookingId", b.ID),
				zap.String("reference", in.PaymentReference),
				zap.Error(err))
			return nil, utils.InvalidState("payment %s could not be verified", in.PaymentReference)
		}
	}

	pro, err := s.loadProfessional(ctx, b.ProfessionalID)
	if err != nil {
		return nil, err
	}

	b.PaymentStatus = models.PaymentPaid
	b.PaymentMethod = method
	b.PaymentReference = in.PaymentReference
	confirmed, seated := false, false
	if b.Status == models.BookingPending && pro.AutoConfirms() {
		confirmed, seated, err = s.seatForConfirm(ctx, b)
		if err != nil {
			return nil, err
		}
		if confirmed {
			b.Status = models.BookingConfirmed
		}
	}
	b.UpdatedAt = s.now()

	if err := s.bookings.Update(ctx, b); err != nil {
		if seated {
			if relErr := s.seats.Release(ctx, b.SessionID(), b.ClientID); relErr != nil {
				s.logger.Error("failed to release seat after payment update failed",
					zap.String("bookingId", b.ID), zap.Error(relErr))
			}
		}
		return nil, fmt.Errorf("ProcessPayment: %w", err)
	}

	notification.Send(ctx, s.notifier, s.logger, notification.NotifyInput{
		RecipientID: pro.UserID,
		Title:       "Payment received",
		Message:     fmt.Sprintf("Booking %s was paid (%s)", b.BookingNumber, method),
		Type:        models.NotifyPaymentReceived,
		Link:        "/bookings/" + b.ID,
		Data:        map[string]any{"bookingId": b.ID, "amount": b.Service.Price},
	})
	if confirmed {
		s.afterConfirm(ctx, b)
	}
	return b, nil
}

// seatForConfirm takes the seat a message booking needs before it can be
// confirmed. When the session is full or the client already sits in it,
// the booking stays pending and only the payment is recorded.
func (s *DefaultBookingService) seatForConfirm(ctx context.Context, b *models.Booking) (confirm, seated bool, err error) {
	if b.BookingType != models.BookingTypeMessage || b.SessionID() == "" {
		return true, false, nil
	}
	_, err = s.seats.Seat(ctx, b.SessionID(), models.Participant{
		UserID:   b.ClientID,
		Status:   models.ParticipantConfirmed,
		Quantity: 1,
		Note:     b.Notes,
	})
	if err == nil {
		return true, true, nil
	}
	switch utils.CodeOf(err) {
	case utils.CodeInvalidState, utils.CodeConflict:
		s.logger.Info("payment recorded, booking left pending without a seat",
			zap.String("bookingId", b.ID),
			zap.String("sessionId", b.SessionID()),
			zap.Error(err))
		return false, false, nil
	}
	return false, false, err
}

// afterConfirm syncs the seat of a session booking and tells the client.
// Failures here never undo the confirmation.
func (s *DefaultBookingService) afterConfirm(ctx context.Context, b *models.Booking) {
	if sessionID := b.SessionID(); sessionID != "" && b.BookingType != models.BookingTypeMessage {
		if err := s.seats.SetStatus(ctx, sessionID, b.ClientID, models.ParticipantConfirmed); err != nil {
			s.logger.Error("failed to sync seat for confirmed booking",
				zap.String("bookingId", b.ID),
				zap.String("sessionId", sessionID),
				zap.Error(err))
		}
	}
	s.notifyClient(ctx, b, "Booking confirmed",
		fmt.Sprintf("Your booking %s for %s is confirmed", b.BookingNumber, b.Service.Name),
		models.NotifyBookingConfirmed)
}

func (s *DefaultBookingService) notifyClient(ctx context.Context, b *models.Booking, title, msg string, t models.NotificationType) {
	notification.Send(ctx, s.notifier, s.logger, notification.NotifyInput{
		RecipientID: b.ClientID,
		Title:       title,
		Message:     msg,
		Type:        t,
		Link:        "/bookings/" + b.ID,
		Data:        map[string]any{"bookingId": b.ID, "status": b.Status},
	})
}

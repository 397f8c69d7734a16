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

func (s *DefaultBookingService) CancelBooking(ctx context.Context, in CancelBookingInput) (*models.Booking, error) {
	b, err := s.loadBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}

	// A missing professional record only narrows who may cancel.
	pro, proErr := s.professionals.GetByID(ctx, b.ProfessionalID)
	if proErr != nil {
		pro = nil
	}
	byClient := in.Actor.UserID == b.ClientID
	byProfessional := pro != nil && in.Actor.UserID == pro.UserID
	if !byClient && !byProfessional && !in.Actor.IsAdmin() {
		return nil, utils.Forbidden("not allowed to cancel booking %s", b.ID)
	}
	if b.IsTerminal() {
		return nil, utils.InvalidState("booking %s is already %s", b.ID, b.Status)
	}

	heldSeat := b.HoldsSeat()
	now := s.now()
	b.Status = models.BookingCancelled
	b.Cancellation = &models.Cancellation{
		Reason:      in.Reason,
		CancelledBy: in.Actor.UserID,
		CancelledAt: now,
	}
	refunded := false
	if in.Refund && b.PaymentStatus == models.PaymentPaid {
		amount := b.Service.Price
		b.PaymentStatus = models.PaymentRefunded
		b.Cancellation.RefundAmount = &amount
		refunded = true
	}
	b.UpdatedAt = now

	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("CancelBooking: %w", err)
	}

	if sessionID := b.SessionID(); sessionID != "" && heldSeat {
		if err := s.seats.Release(ctx, sessionID, b.ClientID); err != nil {
			s.logger.Error("failed to release seat for cancelled booking",
				zap.String("bookingId", b.ID),
				zap.String("sessionId", sessionID),
				zap.Error(err))
		}
	}
	if refunded && s.gateway != nil && b.PaymentMethod == payment.MethodCard && b.PaymentReference != "" {
		if err := s.gateway.Refund(ctx, b.PaymentReference, *b.Cancellation.RefundAmount); err != nil {
			s.logger.Error("card refund failed",
				zap.String("bookingId", b.ID),
				zap.String("reference", b.PaymentReference),
				zap.Error(err))
		}
	}

	s.notifyCancellation(ctx, b, pro, byClient, byProfessional)
	return b, nil
}

func (s *DefaultBookingService) notifyCancellation(ctx context.Context, b *models.Booking, pro *models.Professional, byClient, byProfessional bool) {
	data := map[string]any{"bookingId": b.ID}
	if b.Cancellation.RefundAmount != nil {
		data["refundAmount"] = *b.Cancellation.RefundAmount
	}

	if !byClient && pro != nil {
		msg := fmt.Sprintf("Your booking %s for %s was cancelled", b.BookingNumber, b.Service.Name)
		if b.Cancellation.Reason != "" {
			msg += ": " + b.Cancellation.Reason
		}
		notification.Send(ctx, s.notifier, s.logger, notification.NotifyInput{
			RecipientID: b.ClientID,
			Title:       "Booking cancelled",
			Message:     msg,
			Type:        models.NotifyAppointmentCancelled,
			Link:        "/bookings/" + b.ID,
			Data:        data,
		})
	}
	if !byProfessional && pro != nil {
		msg := fmt.Sprintf("Booking %s for %s was cancelled", b.BookingNumber, b.Service.Name)
		if byClient {
			msg += " by the client"
		}
		notification.Send(ctx, s.notifier, s.logger, notification.NotifyInput{
			RecipientID: pro.UserID,
			Title:       "Booking cancelled",
			Message:     msg,
			Type:        models.NotifyAppointmentCancelled,
			Link:        "/bookings/" + b.ID,
			Data:        data,
		})
	}
}

package booking

import (
	"context"
	"fmt"

	"wellbe/models"
	"wellbe/utils"

	"go.uber.org/zap"
)

// allowed lists the professional-driven transitions. Cancellation has its
// own operation.
var allowed = map[string][]string{
	models.BookingConfirmed: {models.BookingPending},
	models.BookingCompleted: {models.BookingConfirmed},
	models.BookingNoShow:    {models.BookingPending, models.BookingConfirmed},
}

// UpdateBookingStatus lets the owning professional confirm, complete or
// mark a booking as a no-show.
func (s *DefaultBookingService) UpdateBookingStatus(ctx context.Context, in UpdateStatusInput) (*models.Booking, error) {
	from, ok := allowed[in.Status]
	if !ok {
		return nil, utils.InvalidInput("status must be one of confirmed, completed, no_show")
	}
	b, err := s.loadBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	pro, err := s.authorizeProfessional(ctx, b, in.Actor)
	if err != nil {
		return nil, err
	}
	if !contains(from, b.Status) {
		return nil, utils.InvalidState("booking %s cannot move from %s to %s", b.ID, b.Status, in.Status)
	}

	// A message booking takes its seat on confirmation, and a full session
	// blocks the confirmation.
	seated := false
	if in.Status == models.BookingConfirmed && b.BookingType == models.BookingTypeMessage && b.SessionID() != "" {
		if _, err := s.seats.Seat(ctx, b.SessionID(), models.Participant{
			UserID:   b.ClientID,
			Status:   models.ParticipantConfirmed,
			Quantity: 1,
			Note:     b.Notes,
		}); err != nil {
			return nil, err
		}
		seated = true
	}

	b.Status = in.Status
	b.UpdatedAt = s.now()
	if err := s.bookings.Update(ctx, b); err != nil {
		if seated {
			if relErr := s.seats.Release(ctx, b.SessionID(), b.ClientID); relErr != nil {
				s.logger.Error("failed to release seat after status update failed",
					zap.String("bookingId", b.ID), zap.Error(relErr))
			}
		}
		return nil, fmt.Errorf("UpdateBookingStatus: %w", err)
	}
	s.logger.Info("booking status updated",
		zap.String("bookingId", b.ID),
		zap.String("status", b.Status),
		zap.String("professionalId", pro.ID))

	switch b.Status {
	case models.BookingConfirmed:
		if b.BookingType != models.BookingTypeMessage && b.SessionID() != "" {
			if err := s.seats.SetStatus(ctx, b.SessionID(), b.ClientID, models.ParticipantConfirmed); err != nil {
				s.logger.Error("failed to confirm seat", zap.String("bookingId", b.ID), zap.Error(err))
			}
		}
		s.notifyClient(ctx, b, "Booking confirmed",
			fmt.Sprintf("Your booking %s for %s is confirmed", b.BookingNumber, b.Service.Name),
			models.NotifyBookingConfirmed)
	case models.BookingCompleted:
		s.notifyClient(ctx, b, "Booking completed",
			fmt.Sprintf("Thanks for attending %s", b.Service.Name),
			models.NotifyBookingCompleted)
	case models.BookingNoShow:
		s.notifyClient(ctx, b, "Missed booking",
			fmt.Sprintf("You were marked as a no-show for %s", b.Service.Name),
			models.NotifyBookingNoShow)
	}
	return b, nil
}

// authorizeProfessional returns the booking's professional when the actor
// owns it or is an admin.
func (s *DefaultBookingService) authorizeProfessional(ctx context.Context, b *models.Booking, actor models.Actor) (*models.Professional, error) {
	pro, err := s.loadProfessional(ctx, b.ProfessionalID)
	if err != nil {
		return nil, err
	}
	if pro.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, utils.Forbidden("only the booking's professional can change its status")
	}
	return pro, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

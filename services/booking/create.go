package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellbe/database/repository"
	"wellbe/models"
	"wellbe/services/mail"
	"wellbe/services/notification"
	"wellbe/services/seating"
	"wellbe/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBooking reserves a seat for the client and stores the booking.
// The seat is taken first; if the booking cannot be stored the seat is
// given back.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if in.ClientID == "" || in.ProfessionalID == "" || in.SessionID == "" {
		return nil, utils.InvalidInput("clientId, professionalId and sessionId are required")
	}
	if in.BookingType == "" {
		in.BookingType = models.BookingTypeSession
	}
	if in.BookingType != models.BookingTypeSession && in.BookingType != models.BookingTypeMessage {
		return nil, utils.InvalidInput("unknown booking type %q", in.BookingType)
	}

	pro, err := s.loadProfessional(ctx, in.ProfessionalID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, notFoundOr(err, "session %s not found", in.SessionID)
	}
	if session.ProfessionalID != pro.ID {
		return nil, utils.NotFound("session %s is not offered by professional %s", session.ID, pro.ID)
	}

	existing, err := s.bookings.FindActiveForSession(ctx, in.ClientID, session.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.Conflict("client already has booking %s for this session", existing.BookingNumber)
	}

	now := s.now()
	if !session.CanBeBooked(now) {
		return nil, utils.InvalidState("session %s cannot be booked", session.ID)
	}

	status := models.BookingPending
	if in.BookingType == models.BookingTypeSession && pro.AutoConfirms() {
		status = models.BookingConfirmed
	}

	number, err := s.numbers.BookingNumber(ctx, now)
	if err != nil {
		return nil, utils.Internal(err, "could not allocate a booking number")
	}

	b := &models.Booking{
		ID:             uuid.New().String(),
		BookingNumber:  number,
		ClientID:       in.ClientID,
		ProfessionalID: pro.ID,
		Service: models.ServiceSnapshot{
			Name:        session.Title,
			Description: session.Description,
			Duration:    session.Duration,
			Price:       session.Price,
			Currency:    session.Currency,
			SessionID:   session.ID,
		},
		BookingType:   in.BookingType,
		Date:          startOfDay(session.StartsAt),
		StartTime:     session.StartsAt,
		EndTime:       session.EndsAt,
		Location:      session.Location,
		Status:        status,
		PaymentStatus: models.PaymentPending,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Message-originated bookings are always pending and only take a seat
	// once confirmed, so they skip the reservation here.
	seated := false
	if b.BookingType == models.BookingTypeSession {
		if _, err := s.seats.Seat(ctx, session.ID, models.Participant{
			UserID:   b.ClientID,
			Status:   participantStatus(b.Status),
			Quantity: 1,
			Note:     b.Notes,
			JoinedAt: now,
		}); err != nil {
			return nil, err
		}
		seated = true
	} else if err := seating.Admit(session, models.Participant{UserID: b.ClientID, Quantity: 1}, now); err != nil {
		return nil, err
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		if seated {
			if relErr := s.seats.Release(ctx, session.ID, b.ClientID); relErr != nil {
				s.logger.Error("failed to release seat after booking insert failed",
					zap.String("sessionId", session.ID),
					zap.String("clientId", b.ClientID),
					zap.Error(relErr))
			}
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, utils.Conflict("client already has a booking for this session")
		}
		return nil, fmt.Errorf("CreateBooking: %w", err)
	}

	s.logger.Info("booking created",
		zap.String("bookingId", b.ID),
		zap.String("bookingNumber", b.BookingNumber),
		zap.String("status", b.Status))

	notification.Send(ctx, s.notifier, s.logger, notification.NotifyInput{
		RecipientID: pro.UserID,
		Title:       "New booking",
		Message:     fmt.Sprintf("New booking %s for %s", b.BookingNumber, b.Service.Name),
		Type:        models.NotifyNewBooking,
		Link:        "/bookings/" + b.ID,
		Data:        map[string]any{"bookingId": b.ID, "sessionId": session.ID},
	})
	s.sendConfirmationEmails(ctx, b, pro)

	return b, nil
}

func (s *DefaultBookingService) sendConfirmationEmails(ctx context.Context, b *models.Booking, pro *models.Professional) {
	if !s.mailer.Enabled() {
		return
	}
	if s.users != nil {
		if client, err := s.users.GetByID(ctx, b.ClientID); err != nil {
			s.logger.Warn("no client email for booking", zap.String("bookingId", b.ID), zap.Error(err))
		} else {
			s.sendEmail(ctx, b, client.Email, false)
		}
	}
	s.sendEmail(ctx, b, pro.Email, true)
}

func (s *DefaultBookingService) sendEmail(ctx context.Context, b *models.Booking, to string, forProfessional bool) {
	if to == "" {
		return
	}
	email, err := mail.BookingConfirmation(to, b, forProfessional)
	if err == nil {
		err = s.mailer.Send(ctx, email)
	}
	if err != nil {
		s.logger.Warn("booking email failed",
			zap.String("bookingId", b.ID),
			zap.String("to", to),
			zap.Error(err))
	}
}

func (s *DefaultBookingService) loadProfessional(ctx context.Context, id string) (*models.Professional, error) {
	pro, err := s.professionals.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "professional %s not found", id)
	}
	return pro, nil
}

func (s *DefaultBookingService) loadBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "booking %s not found", id)
	}
	return b, nil
}

// notFoundOr turns a repository miss into a NotFound error and passes
// anything else through.
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return utils.NotFound(format, args...)
	}
	return err
}

func participantStatus(bookingStatus string) string {
	if bookingStatus == models.BookingConfirmed {
		return models.ParticipantConfirmed
	}
	return models.ParticipantPending
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

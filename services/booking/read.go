package booking

import (
	"context"

	"wellbe/models"
	"wellbe/utils"
)

// GetBooking returns a booking visible to its client, its professional or
// an admin.
func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error) {
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.UserID == b.ClientID || actor.IsAdmin() {
		return b, nil
	}
	if pro, err := s.professionals.GetByID(ctx, b.ProfessionalID); err == nil && pro.UserID == actor.UserID {
		return b, nil
	}
	return nil, utils.Forbidden("not allowed to view booking %s", bookingID)
}

// ListBookings returns the professional's bookings for professional
// accounts and the caller's own bookings otherwise.
func (s *DefaultBookingService) ListBookings(ctx context.Context, actor models.Actor) ([]models.Booking, error) {
	if actor.Role == models.RoleProfessional {
		pro, err := s.professionals.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, notFoundOr(err, "no professional profile for user %s", actor.UserID)
		}
		return s.bookings.ListByProfessional(ctx, pro.ID)
	}
	return s.bookings.ListByClient(ctx, actor.UserID)
}

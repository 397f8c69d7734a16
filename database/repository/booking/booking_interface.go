package bookingRepo

import (
	"context"

	"wellbe/models"
)

// BookingRepository defines methods for booking data access.
type BookingRepository interface {
	// Create inserts a new booking.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID retrieves a booking by its id.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// Update replaces the mutable fields of an existing booking.
	Update(ctx context.Context, booking *models.Booking) error
	// FindActiveForSession returns the client's non-cancelled booking for a
	// session, or (nil, nil) when there is none.
	FindActiveForSession(ctx context.Context, clientID, sessionID string) (*models.Booking, error)
	// ListByClient returns a client's bookings, newest first.
	ListByClient(ctx context.Context, clientID string) ([]models.Booking, error)
	// ListByProfessional returns a professional's bookings, newest first.
	ListByProfessional(ctx context.Context, professionalID string) ([]models.Booking, error)
}

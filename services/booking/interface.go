package booking

import (
	"context"
	"fmt"
	"time"

	bookingRepo "wellbe/database/repository/booking"
	professionalRepo "wellbe/database/repository/professional"
	sessionRepo "wellbe/database/repository/session"
	userRepo "wellbe/database/repository/user"
	"wellbe/models"
	"wellbe/services/mail"
	"wellbe/services/notification"
	"wellbe/services/numbering"
	"wellbe/services/payment"
	"wellbe/services/seating"

	"go.uber.org/zap"
)

// BookingService manages the lifecycle of session bookings.
type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error)
	CancelBooking(ctx context.Context, in CancelBookingInput) (*models.Booking, error)
	ProcessPayment(ctx context.Context, in ProcessPaymentInput) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, in UpdateStatusInput) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID string, actor models.Actor) (*models.Booking, error)
	ListBookings(ctx context.Context, actor models.Actor) ([]models.Booking, error)
}

type CreateBookingInput struct {
	ClientID       string `json:"-"`
	ProfessionalID string `json:"professionalId"`
	SessionID      string `json:"sessionId"`
	Notes          string `json:"notes"`
	BookingType    string `json:"bookingType"`
}

type CancelBookingInput struct {
	BookingID string       `json:"-"`
	Actor     models.Actor `json:"-"`
	Reason    string       `json:"reason"`
	Refund    bool         `json:"refund"`
}

type ProcessPaymentInput struct {
	BookingID        string `json:"-"`
	PayerID          string `json:"-"`
	PaymentMethod    string `json:"paymentMethod"`
	PaymentReference string `json:"paymentReference"`
}

type UpdateStatusInput struct {
	BookingID string       `json:"-"`
	Actor     models.Actor `json:"-"`
	Status    string       `json:"status"`
}

// Deps groups the collaborators of DefaultBookingService.
type Deps struct {
	Bookings      bookingRepo.BookingRepository
	Sessions      sessionRepo.SessionRepository
	Professionals professionalRepo.ProfessionalRepository
	Users         userRepo.UserRepository
	Numbers       *numbering.Generator
	Notifier      notification.NotificationService
	Mailer        mail.Mailer
	Gateway       payment.Gateway
	Logger        *zap.Logger
	Now           func() time.Time
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	bookings      bookingRepo.BookingRepository
	sessions      sessionRepo.SessionRepository
	professionals professionalRepo.ProfessionalRepository
	users         userRepo.UserRepository
	seats         *seating.Manager
	numbers       *numbering.Generator
	notifier      notification.NotificationService
	mailer        mail.Mailer
	gateway       payment.Gateway
	logger        *zap.Logger
	now           func() time.Time
}

func NewDefaultBookingService(d Deps) (*DefaultBookingService, error) {
	if d.Bookings == nil || d.Sessions == nil || d.Professionals == nil || d.Numbers == nil {
		return nil, fmt.Errorf("booking service initialization error: missing repository")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Mailer == nil {
		d.Mailer = mail.NoopMailer{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &DefaultBookingService{
		bookings:      d.Bookings,
		sessions:      d.Sessions,
		professionals: d.Professionals,
		users:         d.Users,
		seats:         &seating.Manager{Sessions: d.Sessions, Now: d.Now},
		numbers:       d.Numbers,
		notifier:      d.Notifier,
		mailer:        d.Mailer,
		gateway:       d.Gateway,
		logger:        d.Logger,
		now:           d.Now,
	}, nil
}

package models

import "time"

// Booking statuses.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
	BookingNoShow    = "no_show"
)

// Payment statuses shared by bookings and orders.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Booking types. Message-originated bookings only take a session seat once confirmed.
const (
	BookingTypeSession = "session"
	BookingTypeMessage = "message"
)

// Location types.
const (
	LocationInPerson = "in_person"
	LocationOnline   = "online"
)

// ServiceSnapshot is a point-in-time copy of the booked session. Later edits
// to the session never change existing bookings.
type ServiceSnapshot struct {
	Name        string  `bson:"name" json:"name"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Duration    int     `bson:"duration" json:"duration"` // minutes
	Price       float64 `bson:"price" json:"price"`
	Currency    string  `bson:"currency,omitempty" json:"currency,omitempty"`
	SessionID   string  `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
}

type Location struct {
	Type    string `bson:"type" json:"type"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	Link    string `bson:"link,omitempty" json:"link,omitempty"`
}

type Cancellation struct {
	Reason       string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CancelledBy  string    `bson:"cancelledBy" json:"cancelledBy"`
	CancelledAt  time.Time `bson:"cancelledAt" json:"cancelledAt"`
	RefundAmount *float64  `bson:"refundAmount,omitempty" json:"refundAmount,omitempty"`
}

// Booking reserves a client's seat in a professional's session.
type Booking struct {
	ID               string          `bson:"id" json:"id"`
	BookingNumber    string          `bson:"bookingNumber" json:"bookingNumber"`
	ClientID         string          `bson:"clientId" json:"clientId"`
	ProfessionalID   string          `bson:"professionalId" json:"professionalId"`
	Service          ServiceSnapshot `bson:"service" json:"service"`
	BookingType      string          `bson:"bookingType" json:"bookingType"`
	Date             time.Time       `bson:"date" json:"date"`
	StartTime        time.Time       `bson:"startTime" json:"startTime"`
	EndTime          time.Time       `bson:"endTime" json:"endTime"`
	Location         Location        `bson:"location" json:"location"`
	Status           string          `bson:"status" json:"status"`
	PaymentStatus    string          `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod    string          `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	PaymentReference string          `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`
	Cancellation     *Cancellation   `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	Notes            string          `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// IsTerminal reports whether no further status change is allowed.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

func (b *Booking) SessionID() string {
	return b.Service.SessionID
}

// HoldsSeat reports whether the booking currently occupies a seat in its
// session. Message bookings are seated only once confirmed.
func (b *Booking) HoldsSeat() bool {
	if b.SessionID() == "" || b.IsTerminal() {
		return false
	}
	if b.BookingType == BookingTypeMessage {
		return b.Status == BookingConfirmed
	}
	return true
}

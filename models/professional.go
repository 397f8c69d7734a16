package models

import "time"

// Booking modes.
const (
	BookingModeAuto   = "auto"
	BookingModeManual = "manual"
)

// Professional is the business identity behind sessions and products. UserID
// is the account that owns and acts for it.
type Professional struct {
	ID           string    `bson:"id" json:"id"`
	UserID       string    `bson:"userId" json:"userId"`
	BusinessName string    `bson:"businessName" json:"businessName"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	BookingMode  string    `bson:"bookingMode" json:"bookingMode"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (p *Professional) AutoConfirms() bool {
	return p.BookingMode == BookingModeAuto
}

package models

import "time"

// NotificationType is a closed set of business events.
type NotificationType string

const (
	NotifySystem               NotificationType = "system"
	NotifyNewBooking           NotificationType = "new_booking"
	NotifyBookingConfirmed     NotificationType = "booking_confirmed"
	NotifyBookingCompleted     NotificationType = "booking_completed"
	NotifyBookingNoShow        NotificationType = "booking_no_show"
	NotifyAppointmentCancelled NotificationType = "appointment_cancelled"
	NotifyPaymentReceived      NotificationType = "payment_received"
	NotifyNewOrder             NotificationType = "new_order"
	NotifyOrderPlaced          NotificationType = "order_placed"
	NotifyOrderRejected        NotificationType = "order_rejected"
	NotifyOrderStatusChanged   NotificationType = "order_status_changed"
	NotifyOrderShipped         NotificationType = "order_shipped"
	NotifyOrderDelivered       NotificationType = "order_delivered"
	NotifyOrderCancelled       NotificationType = "order_cancelled"
	NotifyEventReviewRequest   NotificationType = "event_review_request"
)

var knownNotificationTypes = map[NotificationType]struct{}{
	NotifySystem: {}, NotifyNewBooking: {}, NotifyBookingConfirmed: {}, NotifyBookingCompleted: {},
	NotifyBookingNoShow: {}, NotifyAppointmentCancelled: {}, NotifyPaymentReceived: {},
	NotifyNewOrder: {}, NotifyOrderPlaced: {}, NotifyOrderRejected: {}, NotifyOrderStatusChanged: {},
	NotifyOrderShipped: {}, NotifyOrderDelivered: {}, NotifyOrderCancelled: {}, NotifyEventReviewRequest: {},
}

// Normalize maps unrecognized categories to NotifySystem.
func (t NotificationType) Normalize() NotificationType {
	if _, ok := knownNotificationTypes[t]; ok {
		return t
	}
	return NotifySystem
}

type Notification struct {
	ID        string           `bson:"id" json:"id"`
	UserID    string           `bson:"userId" json:"userId"`
	Type      NotificationType `bson:"type" json:"type"`
	Title     string           `bson:"title" json:"title"`
	Message   string           `bson:"message" json:"message"`
	Data      map[string]any   `bson:"data,omitempty" json:"data,omitempty"`
	Link      string           `bson:"link,omitempty" json:"link,omitempty"`
	Read      bool             `bson:"read" json:"read"`
	CreatedAt time.Time        `bson:"createdAt" json:"createdAt"`
}

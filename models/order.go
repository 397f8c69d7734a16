package models

import "time"

// Order statuses.
const (
	OrderPending   = "pending"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

const PaymentCashOnDelivery = "cash_on_delivery"

// ValidOrderStatus reports whether s is one of the order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type OrderItem struct {
	ProductID      string  `bson:"productId" json:"productId"`
	ProfessionalID string  `bson:"professionalId" json:"professionalId"`
	Title          string  `bson:"title" json:"title"`
	Quantity       int     `bson:"quantity" json:"quantity"`
	Price          float64 `bson:"price" json:"price"`
	Currency       string  `bson:"currency" json:"currency"`
	Size           string  `bson:"size,omitempty" json:"size,omitempty"`
}

type Order struct {
	ID            string      `bson:"id" json:"id"`
	OrderNumber   string      `bson:"orderNumber" json:"orderNumber"`
	ClientID      string      `bson:"clientId" json:"clientId"`
	Items         []OrderItem `bson:"items" json:"items"`
	TotalAmount   float64     `bson:"totalAmount" json:"totalAmount"`
	Currency      string      `bson:"currency" json:"currency"`
	Status        string      `bson:"status" json:"status"`
	PaymentStatus string      `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod string      `bson:"paymentMethod" json:"paymentMethod"`
	ShippedAt     *time.Time  `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	DeliveredAt   *time.Time  `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CancelledAt   *time.Time  `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	Notes         string      `bson:"notes,omitempty" json:"notes,omitempty"`
	MessageID     string      `bson:"messageId,omitempty" json:"messageId,omitempty"`
	CreatedAt     time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// ProfessionalID returns the seller of the order; all items share one seller.
func (o *Order) ProfessionalID() string {
	if len(o.Items) == 0 {
		return ""
	}
	return o.Items[0].ProfessionalID
}

// ItemsTotal sums price x quantity over all items.
func ItemsTotal(items []OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

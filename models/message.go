package models

import "time"

const MessageTypePurchaseIntent = "purchase_intent"

// PurchaseIntent is the structured order request a client sends in chat.
type PurchaseIntent struct {
	ProductID   string   `bson:"productId,omitempty" json:"productId,omitempty"`
	ProductName string   `bson:"productName" json:"productName"`
	Size        string   `bson:"size,omitempty" json:"size,omitempty"`
	Quantity    any      `bson:"quantity" json:"quantity"`
	Price       *float64 `bson:"price,omitempty" json:"price,omitempty"`
	Currency    string   `bson:"currency,omitempty" json:"currency,omitempty"`
}

type Message struct {
	ID              string          `bson:"id" json:"id"`
	SenderID        string          `bson:"senderId" json:"senderId"`
	RecipientID     string          `bson:"recipientId" json:"recipientId"`
	Type            string          `bson:"type" json:"type"`
	Content         string          `bson:"content,omitempty" json:"content,omitempty"`
	PurchaseIntent  *PurchaseIntent `bson:"purchaseIntent,omitempty" json:"purchaseIntent,omitempty"`
	Processed       bool            `bson:"processed" json:"processed"`
	Rejected        bool            `bson:"rejected" json:"rejected"`
	RejectionReason string          `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	OrderID         string          `bson:"orderId,omitempty" json:"orderId,omitempty"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt"`
}

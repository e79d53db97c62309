package model

import "time"

// EventType names domain events published to the message bus.
type EventType string

const (
	EventOrderPaid         EventType = "order.paid"
	EventOrderCancelled    EventType = "order.cancelled"
	EventReconcileRequired EventType = "payment.reconcile_required"
	EventUserRegistered    EventType = "user.registered"
)

// OrderEvent reports an order state change.
type OrderEvent struct {
	Type          EventType   `json:"type"`
	OrderID       int64       `json:"order_id"`
	UserID        int64       `json:"user_id"`
	Status        OrderStatus `json:"status"`
	TransactionID string      `json:"tid,omitempty"`
	ApprovalID    string      `json:"aid,omitempty"`
	TotalPrice    int64       `json:"total_price"`
	Reason        string      `json:"reason,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// UserEvent reports an account change, such as a pending email verification.
type UserEvent struct {
	Type             EventType `json:"type"`
	UserID           int64     `json:"user_id"`
	Email            string    `json:"email"`
	VerificationLink string    `json:"verification_link,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

package model

import "time"

// OrderStatus describes checkout lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderSource records how an order was created.
type OrderSource string

const (
	OrderSourceDirect OrderSource = "DIRECT"
	OrderSourceCart   OrderSource = "CART"
)

// Order describes one checkout attempt.
type Order struct {
	ID            int64
	UserID        int64
	Address       string
	Status        OrderStatus
	Source        OrderSource
	TransactionID string
	TotalPrice    int64
	Lines         []OrderLine
	CreatedAt     time.Time
	PaidAt        *time.Time
	// ApprovalStartedAt is set while the gateway approve call is in flight and
	// stays set when the charge could not be settled locally.
	ApprovalStartedAt *time.Time
}

// OrderLine is one product within an order, priced at creation time.
type OrderLine struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   int64
}

// Deletable reports whether the order may be dropped without a trace.
// An order whose approval reached the gateway may have been charged.
func (o *Order) Deletable() bool {
	return o.Status == OrderStatusPending && o.ApprovalStartedAt == nil
}

// Quantity returns the number of units across all lines.
func (o *Order) Quantity() int {
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}

// ComputeTotal sums unit price times quantity over lines.
func ComputeTotal(lines []OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

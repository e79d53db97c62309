package dto

import "time"

// OrderRequest describes a single product checkout.
type OrderRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type OrderLineResponse struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
}

type OrderResponse struct {
	ID            int64               `json:"id"`
	Status        string              `json:"status"`
	Source        string              `json:"source"`
	Address       string              `json:"address"`
	TransactionID string              `json:"tid,omitempty"`
	TotalPrice    int64               `json:"totalPrice"`
	Lines         []OrderLineResponse `json:"lines"`
	CreatedAt     time.Time           `json:"createdAt"`
	PaidAt        *time.Time          `json:"paidAt,omitempty"`
}

// CheckoutResponse returns the new order with the gateway redirect targets.
type CheckoutResponse struct {
	Order                 OrderResponse `json:"order"`
	NextRedirectPCURL     string        `json:"nextRedirectPcUrl"`
	NextRedirectMobileURL string        `json:"nextRedirectMobileUrl"`
	NextRedirectAppURL    string        `json:"nextRedirectAppUrl"`
}

// StatusRequest moves an order along fulfillment.
type StatusRequest struct {
	Status string `json:"status"`
}

// ApprovalResponse reports a completed payment.
type ApprovalResponse struct {
	OrderID           int64     `json:"orderId"`
	Status            string    `json:"status"`
	TransactionID     string    `json:"tid"`
	ApprovalID        string    `json:"aid"`
	PaymentMethodType string    `json:"paymentMethodType"`
	Amount            int64     `json:"amount"`
	ApprovedAt        time.Time `json:"approvedAt"`
}

// PaymentResultResponse reports a cancelled or failed payment.
type PaymentResultResponse struct {
	OrderID int64  `json:"orderId"`
	Result  string `json:"result"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

package model

import "time"

// PaymentReadyRequest starts a payment at the gateway.
type PaymentReadyRequest struct {
	CID            string `json:"cid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	ItemName       string `json:"item_name"`
	ItemCode       string `json:"item_code,omitempty"`
	Quantity       int    `json:"quantity"`
	TotalAmount    int64  `json:"total_amount"`
	TaxFreeAmount  int64  `json:"tax_free_amount"`
	ApprovalURL    string `json:"approval_url"`
	CancelURL      string `json:"cancel_url"`
	FailURL        string `json:"fail_url"`
}

// PaymentReady is the gateway answer to a ready request.
type PaymentReady struct {
	TID                   string    `json:"tid"`
	NextRedirectAppURL    string    `json:"next_redirect_app_url"`
	NextRedirectMobileURL string    `json:"next_redirect_mobile_url"`
	NextRedirectPCURL     string    `json:"next_redirect_pc_url"`
	AndroidAppScheme      string    `json:"android_app_scheme"`
	IOSAppScheme          string    `json:"ios_app_scheme"`
	CreatedAt             time.Time `json:"created_at"`
}

// PaymentApproveRequest confirms a payment the user authorised.
type PaymentApproveRequest struct {
	CID            string `json:"cid"`
	TID            string `json:"tid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	PGToken        string `json:"pg_token"`
}

// PaymentAmount breaks down an approved amount.
type PaymentAmount struct {
	Total    int64 `json:"total"`
	TaxFree  int64 `json:"tax_free"`
	VAT      int64 `json:"vat"`
	Point    int64 `json:"point"`
	Discount int64 `json:"discount"`
}

// PaymentApproval is the gateway answer to an approve request.
type PaymentApproval struct {
	AID               string        `json:"aid"`
	TID               string        `json:"tid"`
	CID               string        `json:"cid"`
	PartnerOrderID    string        `json:"partner_order_id"`
	PartnerUserID     string        `json:"partner_user_id"`
	PaymentMethodType string        `json:"payment_method_type"`
	ItemName          string        `json:"item_name"`
	Quantity          int           `json:"quantity"`
	Amount            PaymentAmount `json:"amount"`
	CreatedAt         time.Time     `json:"created_at"`
	ApprovedAt        time.Time     `json:"approved_at"`
}

// Checkout couples a freshly created order with its payment redirect.
type Checkout struct {
	Order   *Order
	Payment *PaymentReady
}

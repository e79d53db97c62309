package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/server/http/dto"
)

// PaymentHandler receives the provider redirects after the buyer leaves the payment page.
type PaymentHandler struct {
	facade PaymentFacade
}

func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Success handles GET /api/payment/success.
func (h *PaymentHandler) Success(c *gin.Context) {
	orderID, ok := queryOrderID(c)
	if !ok {
		badRequest(c, "invalid orderId")
		return
	}

	approval, err := h.facade.ApprovePayment(c.Request.Context(), orderID, c.Query("pg_token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ApprovalResponse{
		OrderID:           orderID,
		Status:            string(model.OrderStatusPaid),
		TransactionID:     approval.TID,
		ApprovalID:        approval.AID,
		PaymentMethodType: approval.PaymentMethodType,
		Amount:            approval.Amount.Total,
		ApprovedAt:        approval.ApprovedAt,
	})
}

// Cancel handles GET /api/payment/cancel.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	h.abandon(c, "cancel")
}

// Fail handles GET /api/payment/fail.
func (h *PaymentHandler) Fail(c *gin.Context) {
	h.abandon(c, "fail")
}

func (h *PaymentHandler) abandon(c *gin.Context, result string) {
	orderID, ok := queryOrderID(c)
	if !ok {
		badRequest(c, "invalid orderId")
		return
	}
	if err := h.facade.CancelPayment(c.Request.Context(), orderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PaymentResultResponse{OrderID: orderID, Result: result})
}

func queryOrderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("orderId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

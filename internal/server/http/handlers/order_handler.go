package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/server/http/dto"
)

// OrderHandler serves checkout and order history.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler creates OrderHandler instance.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Checkout handles POST /api/user/orders.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	checkout, err := h.facade.Checkout(c.Request.Context(), CurrentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCheckoutResponse(checkout))
}

// CheckoutCart handles POST /api/user/orders/cart.
func (h *OrderHandler) CheckoutCart(c *gin.Context) {
	checkout, err := h.facade.CheckoutCart(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCheckoutResponse(checkout))
}

// RetryPayment handles POST /api/user/orders/:id/payment.
func (h *OrderHandler) RetryPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	checkout, err := h.facade.RetryPayment(c.Request.Context(), CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(checkout))
}

// List handles GET /api/user/orders.
func (h *OrderHandler) List(c *gin.Context) {
	page, ok := pageRequest(c)
	if !ok {
		badRequest(c, "invalid paging parameters")
		return
	}
	orders, err := h.facade.Orders(c.Request.Context(), CurrentUserID(c), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(orders, toOrderResponse))
}

// Get handles GET /api/user/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	order, err := h.facade.Order(c.Request.Context(), CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// Cancel handles POST /api/user/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	order, err := h.facade.CancelOrder(c.Request.Context(), CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// AdvanceStatus handles PATCH /api/admin/orders/:id/status.
func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid order id")
		return
	}
	var req dto.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	order, err := h.facade.AdvanceOrder(c.Request.Context(), id, model.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

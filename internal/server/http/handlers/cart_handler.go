package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/shopmart/internal/server/http/dto"
)

// CartHandler serves the authenticated user's cart.
type CartHandler struct {
	facade CartFacade
}

func NewCartHandler(facade CartFacade) *CartHandler {
	return &CartHandler{facade: facade}
}

// List handles GET /api/user/cart.
func (h *CartHandler) List(c *gin.Context) {
	lines, err := h.facade.Cart(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(lines))
}

// Add handles POST /api/user/cart.
func (h *CartHandler) Add(c *gin.Context) {
	var req dto.CartAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	line, err := h.facade.AddToCart(c.Request.Context(), CurrentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartLineResponse(*line))
}

// Change handles PATCH /api/user/cart/:lineId?operation=increase|decrease.
func (h *CartHandler) Change(c *gin.Context) {
	lineID, ok := pathID(c, "lineId")
	if !ok {
		badRequest(c, "invalid cart line id")
		return
	}

	line, err := h.facade.ChangeCartLine(c.Request.Context(), CurrentUserID(c), lineID, c.Query("operation"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartLineResponse(*line))
}

// Remove handles DELETE /api/user/cart/:lineId.
func (h *CartHandler) Remove(c *gin.Context) {
	lineID, ok := pathID(c, "lineId")
	if !ok {
		badRequest(c, "invalid cart line id")
		return
	}
	if err := h.facade.RemoveCartLine(c.Request.Context(), CurrentUserID(c), lineID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveProduct handles DELETE /api/user/cart/products/:productId.
func (h *CartHandler) RemoveProduct(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		badRequest(c, "invalid product id")
		return
	}
	if err := h.facade.RemoveCartProduct(c.Request.Context(), CurrentUserID(c), productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear handles DELETE /api/user/cart.
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.facade.ClearCart(c.Request.Context(), CurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/shopmart/internal/server/http/dto"
)

// ReviewHandler serves product reviews.
type ReviewHandler struct {
	facade ReviewFacade
}

func NewReviewHandler(facade ReviewFacade) *ReviewHandler {
	return &ReviewHandler{facade: facade}
}

// Create handles POST /api/products/:id/reviews.
func (h *ReviewHandler) Create(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid product id")
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	review, err := h.facade.CreateReview(c.Request.Context(), CurrentUserID(c), productID, req.Rating, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReviewResponse(*review))
}

// Get handles GET /api/reviews/:id.
func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid review id")
		return
	}
	review, err := h.facade.Review(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(*review))
}

// Update handles PUT /api/reviews/:id.
func (h *ReviewHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid review id")
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	review, err := h.facade.UpdateReview(c.Request.Context(), CurrentUserID(c), id, req.Rating, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(*review))
}

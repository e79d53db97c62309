package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/server/http/dto"
)

// ProductHandler serves the catalog.
type ProductHandler struct {
	facade CatalogFacade
}

// NewProductHandler creates ProductHandler instance.
func NewProductHandler(facade CatalogFacade) *ProductHandler {
	return &ProductHandler{facade: facade}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c *gin.Context) {
	page, ok := pageRequest(c)
	if !ok {
		badRequest(c, "invalid paging parameters")
		return
	}
	filter := model.ProductFilter{
		Category: model.Category(c.Query("category")),
		Keyword:  c.Query("keyword"),
	}

	result, err := h.facade.Products(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(result, toProductResponse))
}

// Popular handles GET /api/products/popular.
func (h *ProductHandler) Popular(c *gin.Context) {
	products, err := h.facade.PopularProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.PopularProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, dto.PopularProductResponse{ProductResponse: toProductResponse(p.Product), Sold: p.Sold})
	}
	c.JSON(http.StatusOK, resp)
}

// Detail handles GET /api/products/:id.
func (h *ProductHandler) Detail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid product id")
		return
	}
	page, ok := pageRequest(c)
	if !ok {
		badRequest(c, "invalid paging parameters")
		return
	}

	detail, err := h.facade.ProductDetail(c.Request.Context(), id, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProductDetailResponse{
		Product: toProductResponse(detail.Product),
		Reviews: toPageResponse(detail.Reviews, toReviewResponse),
	})
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	product, err := h.facade.CreateProduct(c.Request.Context(), productFromRequest(0, req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(*product))
}

// Update handles PUT /api/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid product id")
		return
	}
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	product, err := h.facade.UpdateProduct(c.Request.Context(), productFromRequest(id, req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*product))
}

// Delete handles DELETE /api/products/:id.
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid product id")
		return
	}
	if err := h.facade.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock handles PATCH /api/admin/products/:id/stock.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		badRequest(c, "invalid product id")
		return
	}
	var req dto.StockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	stock, err := h.facade.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StockResponse{ProductID: id, Stock: stock})
}

func productFromRequest(id int64, req dto.ProductRequest) *model.Product {
	return &model.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    model.Category(req.Category),
	}
}

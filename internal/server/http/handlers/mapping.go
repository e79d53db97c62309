package handlers

import (
	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/server/http/dto"
)

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      string(u.Role),
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
	}
}

func toProductResponse(p model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    string(p.Category),
		Rating:      p.Rating,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toReviewResponse(r model.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Author:    r.Author,
		Rating:    r.Rating,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toPageResponse[T, R any](p model.Page[T], conv func(T) R) dto.PageResponse[R] {
	content := make([]R, 0, len(p.Items))
	for _, item := range p.Items {
		content = append(content, conv(item))
	}
	return dto.PageResponse[R]{
		Content:       content,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages(),
	}
}

func toCartResponse(lines []model.CartLine) dto.CartResponse {
	resp := dto.CartResponse{Lines: make([]dto.CartLineResponse, 0, len(lines))}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, toCartLineResponse(l))
		resp.Total += l.Subtotal()
	}
	return resp
}

func toCartLineResponse(l model.CartLine) dto.CartLineResponse {
	return dto.CartLineResponse{
		ID:          l.ID,
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		ImageURL:    l.ImageURL,
		Price:       l.Price,
		Quantity:    l.Quantity,
		Stock:       l.Stock,
		Subtotal:    l.Subtotal(),
	}
}

func toOrderResponse(o model.Order) dto.OrderResponse {
	lines := make([]dto.OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, dto.OrderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return dto.OrderResponse{
		ID:            o.ID,
		Status:        string(o.Status),
		Source:        string(o.Source),
		Address:       o.Address,
		TransactionID: o.TransactionID,
		TotalPrice:    o.TotalPrice,
		Lines:         lines,
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt,
	}
}

func toCheckoutResponse(c *model.Checkout) dto.CheckoutResponse {
	resp := dto.CheckoutResponse{Order: toOrderResponse(*c.Order)}
	if c.Payment != nil {
		resp.Order.TransactionID = c.Payment.TID
		resp.NextRedirectPCURL = c.Payment.NextRedirectPCURL
		resp.NextRedirectMobileURL = c.Payment.NextRedirectMobileURL
		resp.NextRedirectAppURL = c.Payment.NextRedirectAppURL
	}
	return resp
}

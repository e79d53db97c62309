package dto

import "time"

// PageResponse wraps one page of a listing.
type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// ProductRequest describes catalog create/update payload.
type ProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Category    string `json:"category"`
}

// StockAdjustRequest restocks (positive) or writes off (negative) units.
type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

type StockResponse struct {
	ProductID int64 `json:"productId"`
	Stock     int   `json:"stock"`
}

type ProductResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PopularProductResponse struct {
	ProductResponse
	Sold int `json:"sold"`
}

type ProductDetailResponse struct {
	Product ProductResponse              `json:"product"`
	Reviews PageResponse[ReviewResponse] `json:"reviews"`
}

// ReviewRequest describes review create/update payload.
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

type ReviewResponse struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId"`
	UserID    int64     `json:"userId"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

package dto

// CartAddRequest adds quantity units of a product to the cart.
type CartAddRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CartLineResponse struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	ImageURL    string `json:"imageUrl"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Stock       int    `json:"stock"`
	Subtotal    int64  `json:"subtotal"`
}

// CartResponse lists cart lines with their grand total.
type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	Total int64              `json:"total"`
}

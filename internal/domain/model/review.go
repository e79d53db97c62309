package model

import "time"

// Review is a customer's rating of a product.
type Review struct {
	ID        int64
	ProductID int64
	UserID    int64
	Author    string
	Rating    int
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

package model

import "time"

// Category classifies catalog entries.
type Category string

const (
	CategoryElectronics Category = "ELECTRONICS"
	CategoryFashion     Category = "FASHION"
	CategoryFood        Category = "FOOD"
	CategoryFurniture   Category = "FURNITURE"
	CategoryToys        Category = "TOYS"
)

// Valid reports whether category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryFashion, CategoryFood, CategoryFurniture, CategoryToys:
		return true
	}
	return false
}

// Product describes a catalog entry with its current stock.
type Product struct {
	ID          int64
	Name        string
	Description string
	ImageURL    string
	Price       int64
	Stock       int
	Category    Category
	Rating      float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductFilter narrows catalog listings. Empty fields match everything.
type ProductFilter struct {
	Category Category
	Keyword  string
}

// PopularProduct is a product ranked by recent sales.
type PopularProduct struct {
	Product
	Sold int
}

// ProductDetail bundles a product with a page of its reviews.
type ProductDetail struct {
	Product Product
	Reviews Page[Review]
}

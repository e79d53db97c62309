package model

// MaxCartLineQuantity caps the quantity of a single product in a cart.
const MaxCartLineQuantity = 10

// CartLine is a product selected by a user but not yet ordered.
type CartLine struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int

	ProductName string
	ImageURL    string
	Price       int64
	Stock       int
}

// Subtotal returns price multiplied by quantity.
func (l CartLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

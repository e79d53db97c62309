package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Users() UserRepository
	Products() ProductRepository
	Inventory() InventoryLedger
	Reviews() ReviewRepository
	Carts() CartRepository
	Orders() OrderRepository
}

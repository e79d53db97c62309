package test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/domain/repository"
)

// MemStore keeps every repository in memory behind one mutex, so the
// transactional operations (MarkPaid, Cancel) are atomic the same way the
// PostgreSQL ones are.
type MemStore struct {
	mu sync.Mutex

	users    map[int64]*model.User
	products map[int64]*model.Product
	reviews  map[int64]*model.Review
	cart     map[int64]*model.CartLine
	orders   map[int64]*model.Order
	nextID   int64
	failures map[string]error
	now      func() time.Time
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[int64]*model.User),
		products: make(map[int64]*model.Product),
		reviews:  make(map[int64]*model.Review),
		cart:     make(map[int64]*model.CartLine),
		orders:   make(map[int64]*model.Order),
		failures: make(map[string]error),
		now:      time.Now,
	}
}

var _ repository.Factory = (*MemStore)(nil)

func (s *MemStore) Users() repository.UserRepository       { return memUsers{s} }
func (s *MemStore) Products() repository.ProductRepository { return memProducts{s} }
func (s *MemStore) Inventory() repository.InventoryLedger  { return memInventory{s} }
func (s *MemStore) Reviews() repository.ReviewRepository   { return memReviews{s} }
func (s *MemStore) Carts() repository.CartRepository       { return memCarts{s} }
func (s *MemStore) Orders() repository.OrderRepository     { return memOrders{s} }

// Fail makes the named operation (for example "Orders.MarkPaid") return err.
// A nil err clears the failure.
func (s *MemStore) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *MemStore) fail(op string) error {
	return s.failures[op]
}

func (s *MemStore) id() int64 {
	s.nextID++
	return s.nextID
}

// AddUser seeds a user as given, defaulting the role to USER.
func (s *MemStore) AddUser(u model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.id()
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	s.users[u.ID] = &u
	cp := u
	return &cp
}

// AddProduct seeds a catalog entry.
func (s *MemStore) AddProduct(p model.Product) *model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	if p.Category == "" {
		p.Category = model.CategoryFood
	}
	s.products[p.ID] = &p
	cp := p
	return &cp
}

// AddCartLine seeds a cart line without limit checks.
func (s *MemStore) AddCartLine(userID, productID int64, qty int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.cart[id] = &model.CartLine{ID: id, UserID: userID, ProductID: productID, Quantity: qty}
	return id
}

// StockOf returns current stock or -1 for unknown products.
func (s *MemStore) StockOf(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		return p.Stock
	}
	return -1
}

// CartSize returns the number of lines in the user's cart.
func (s *MemStore) CartSize(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.cart {
		if l.UserID == userID {
			n++
		}
	}
	return n
}

// OrderCount returns the number of stored orders.
func (s *MemStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Order returns a copy of the stored order or nil.
func (s *MemStore) Order(id int64) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	return copyOrder(o)
}

// SetOrderCreatedAt backdates an order.
func (s *MemStore) SetOrderCreatedAt(id int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.CreatedAt = at
	}
}

func copyOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Lines = append([]model.OrderLine(nil), o.Lines...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		cp.PaidAt = &t
	}
	return &cp
}

func paginate[T any](items []T, page model.PageRequest) model.Page[T] {
	total := int64(len(items))
	start := page.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return model.NewPage(items[start:end], page, total)
}

type memUsers struct{ s *MemStore }

func (r memUsers) Create(_ context.Context, user *model.User) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Users.Create"); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.Username == user.Username || (user.Email != "" && u.Email == user.Email) {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	cp := *user
	cp.ID = r.s.id()
	cp.CreatedAt = r.s.now()
	r.s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Users.GetByUsername"); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (r memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) Verify(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if token != "" && u.VerificationToken == token {
			u.Enabled = true
			u.VerificationToken = ""
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

func (r memUsers) UpdateProfile(_ context.Context, userID int64, update model.ProfileUpdate) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if update.Email != nil {
		for _, other := range r.s.users {
			if other.ID != userID && other.Email == *update.Email {
				return nil, domainErrors.ErrAlreadyExists
			}
		}
		u.Email = *update.Email
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Address != nil {
		u.Address = *update.Address
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type memProducts struct{ s *MemStore }

func (r memProducts) Create(_ context.Context, product *model.Product) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Name == product.Name {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	cp := *product
	cp.ID = r.s.id()
	cp.CreatedAt = r.s.now()
	cp.UpdatedAt = cp.CreatedAt
	r.s.products[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memProducts) Update(_ context.Context, product *model.Product) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.products[product.ID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	for _, p := range r.s.products {
		if p.ID != product.ID && p.Name == product.Name {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	cp := *product
	cp.CreatedAt = stored.CreatedAt
	cp.Rating = stored.Rating
	cp.UpdatedAt = r.s.now()
	r.s.products[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memProducts) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domainErrors.ErrNotFound
	}
	for _, o := range r.s.orders {
		for _, l := range o.Lines {
			if l.ProductID == id {
				return domainErrors.ErrInUse
			}
		}
	}
	delete(r.s.products, id)
	return nil
}

func (r memProducts) GetByID(_ context.Context, id int64) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Products.GetByID"); err != nil {
		return nil, err
	}
	p, ok := r.s.products[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memProducts) List(_ context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	keyword := strings.ToLower(filter.Keyword)
	var items []model.Product
	for _, p := range r.s.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(p.Name), keyword) {
			continue
		}
		items = append(items, *p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return paginate(items, page), nil
}

func (r memProducts) Popular(_ context.Context, since time.Time, limit int) ([]model.PopularProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sold := make(map[int64]int)
	for _, o := range r.s.orders {
		switch o.Status {
		case model.OrderStatusPaid, model.OrderStatusShipped, model.OrderStatusDelivered:
		default:
			continue
		}
		if o.CreatedAt.Before(since) {
			continue
		}
		for _, l := range o.Lines {
			sold[l.ProductID] += l.Quantity
		}
	}
	var out []model.PopularProduct
	for id, n := range sold {
		if p, ok := r.s.products[id]; ok {
			out = append(out, model.PopularProduct{Product: *p, Sold: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sold != out[j].Sold {
			return out[i].Sold > out[j].Sold
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memInventory struct{ s *MemStore }

func (l memInventory) Decrement(_ context.Context, productID int64, qty int) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.adjustStock(productID, -qty)
}

func (l memInventory) Increment(_ context.Context, productID int64, qty int) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.adjustStock(productID, qty)
}

func (l memInventory) Stock(_ context.Context, productID int64) (int, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	p, ok := l.s.products[productID]
	if !ok {
		return 0, domainErrors.ErrNotFound
	}
	return p.Stock, nil
}

func (s *MemStore) adjustStock(productID int64, delta int) error {
	if delta == 0 {
		return domainErrors.ErrInvalidInput
	}
	p, ok := s.products[productID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return domainErrors.ErrInsufficientStock
	}
	p.Stock += delta
	return nil
}

type memReviews struct{ s *MemStore }

func (r memReviews) Create(_ context.Context, review *model.Review) (*model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[review.ProductID]; !ok {
		return nil, domainErrors.ErrNotFound
	}
	for _, rv := range r.s.reviews {
		if rv.ProductID == review.ProductID && rv.UserID == review.UserID {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	cp := *review
	cp.ID = r.s.id()
	cp.CreatedAt = r.s.now()
	cp.UpdatedAt = cp.CreatedAt
	if u, ok := r.s.users[review.UserID]; ok {
		cp.Author = u.Username
	}
	r.s.reviews[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memReviews) Update(_ context.Context, review *model.Review) (*model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.reviews[review.ID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	stored.Rating = review.Rating
	stored.Content = review.Content
	stored.UpdatedAt = r.s.now()
	cp := *stored
	return &cp, nil
}

func (r memReviews) GetByID(_ context.Context, id int64) (*model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

func (r memReviews) ListByProduct(_ context.Context, productID int64, page model.PageRequest) (model.Page[model.Review], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var items []model.Review
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			items = append(items, *rv)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return paginate(items, page), nil
}

type memCarts struct{ s *MemStore }

func (r memCarts) ListByUser(_ context.Context, userID int64) ([]model.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Carts.ListByUser"); err != nil {
		return nil, err
	}
	var out []model.CartLine
	for _, l := range r.s.cart {
		if l.UserID != userID {
			continue
		}
		line := *l
		if p, ok := r.s.products[l.ProductID]; ok {
			line.ProductName = p.Name
			line.ImageURL = p.ImageURL
			line.Price = p.Price
			line.Stock = p.Stock
		}
		out = append(out, line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCarts) AddLine(_ context.Context, userID, productID int64, qty int) (*model.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[productID]; !ok {
		return nil, domainErrors.ErrNotFound
	}
	for _, l := range r.s.cart {
		if l.UserID == userID && l.ProductID == productID {
			if l.Quantity+qty > model.MaxCartLineQuantity {
				return nil, domainErrors.ErrLimitExceeded
			}
			l.Quantity += qty
			cp := *l
			return &cp, nil
		}
	}
	if qty > model.MaxCartLineQuantity {
		return nil, domainErrors.ErrLimitExceeded
	}
	line := &model.CartLine{ID: r.s.id(), UserID: userID, ProductID: productID, Quantity: qty}
	r.s.cart[line.ID] = line
	cp := *line
	return &cp, nil
}

func (r memCarts) UpdateLine(_ context.Context, userID, lineID int64, delta int) (*model.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.cart[lineID]
	if !ok || l.UserID != userID {
		return nil, domainErrors.ErrNotFound
	}
	next := l.Quantity + delta
	if next < 1 || next > model.MaxCartLineQuantity {
		return nil, domainErrors.ErrOutOfRange
	}
	l.Quantity = next
	cp := *l
	return &cp, nil
}

func (r memCarts) RemoveLine(_ context.Context, userID, lineID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.cart[lineID]; ok && l.UserID == userID {
		delete(r.s.cart, lineID)
	}
	return nil
}

func (r memCarts) RemoveProduct(_ context.Context, userID, productID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.cart {
		if l.UserID == userID && l.ProductID == productID {
			delete(r.s.cart, id)
		}
	}
	return nil
}

func (r memCarts) ClearForUser(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clearCart(userID)
	return nil
}

func (s *MemStore) clearCart(userID int64) {
	for id, l := range s.cart {
		if l.UserID == userID {
			delete(s.cart, id)
		}
	}
}

type memOrders struct{ s *MemStore }

func (r memOrders) Create(_ context.Context, order *model.Order) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Orders.Create"); err != nil {
		return nil, err
	}
	if _, ok := r.s.users[order.UserID]; !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := copyOrder(order)
	cp.ID = r.s.id()
	cp.CreatedAt = r.s.now()
	for i := range cp.Lines {
		cp.Lines[i].ID = r.s.id()
		cp.Lines[i].OrderID = cp.ID
	}
	r.s.orders[cp.ID] = cp
	return copyOrder(cp), nil
}

func (r memOrders) GetByID(_ context.Context, id int64) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r memOrders) ListByUser(_ context.Context, userID int64, page model.PageRequest) (model.Page[model.Order], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var items []model.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			items = append(items, *copyOrder(o))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return paginate(items, page), nil
}

func (r memOrders) SetTransactionID(_ context.Context, orderID int64, tid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Orders.SetTransactionID"); err != nil {
		return err
	}
	o, ok := r.s.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if o.Status == model.OrderStatusPaid {
		return domainErrors.ErrAlreadyPaid
	}
	if o.Status != model.OrderStatusPending || o.TransactionID != "" {
		return domainErrors.ErrInvalidTransition
	}
	o.TransactionID = tid
	return nil
}

func (r memOrders) BeginApproval(_ context.Context, orderID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Orders.BeginApproval"); err != nil {
		return err
	}
	o, ok := r.s.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if o.Status == model.OrderStatusPaid {
		return domainErrors.ErrAlreadyPaid
	}
	if !o.Deletable() || o.TransactionID == "" {
		return domainErrors.ErrInvalidTransition
	}
	started := r.s.now()
	o.ApprovalStartedAt = &started
	return nil
}

func (r memOrders) AbortApproval(_ context.Context, orderID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.orders[orderID]; ok && o.Status == model.OrderStatusPending {
		o.ApprovalStartedAt = nil
	}
	return nil
}

func (r memOrders) MarkPaid(_ context.Context, orderID int64) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Orders.MarkPaid"); err != nil {
		return nil, err
	}
	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	switch {
	case o.Status == model.OrderStatusPaid:
		return nil, domainErrors.ErrAlreadyPaid
	case o.Status != model.OrderStatusPending, o.TransactionID == "":
		return nil, domainErrors.ErrInvalidTransition
	}

	need := make(map[int64]int)
	for _, l := range o.Lines {
		need[l.ProductID] += l.Quantity
	}
	for id, qty := range need {
		p, ok := r.s.products[id]
		if !ok {
			return nil, domainErrors.ErrNotFound
		}
		if p.Stock < qty {
			return nil, domainErrors.ErrInsufficientStock
		}
	}
	for id, qty := range need {
		r.s.products[id].Stock -= qty
	}

	paidAt := r.s.now()
	o.Status = model.OrderStatusPaid
	o.PaidAt = &paidAt
	if o.Source == model.OrderSourceCart {
		r.s.clearCart(o.UserID)
	}
	return copyOrder(o), nil
}

func (r memOrders) Cancel(_ context.Context, orderID int64) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	switch o.Status {
	case model.OrderStatusPaid:
		for _, l := range o.Lines {
			if p, ok := r.s.products[l.ProductID]; ok {
				p.Stock += l.Quantity
			}
		}
	case model.OrderStatusPending:
		if !o.Deletable() {
			return nil, domainErrors.ErrInvalidTransition
		}
	default:
		return nil, domainErrors.ErrInvalidTransition
	}
	o.Status = model.OrderStatusCancelled
	return copyOrder(o), nil
}

func (r memOrders) DeletePending(_ context.Context, orderID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Orders.DeletePending"); err != nil {
		return err
	}
	o, ok := r.s.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if o.Status == model.OrderStatusPaid {
		return domainErrors.ErrAlreadyPaid
	}
	if !o.Deletable() {
		return domainErrors.ErrInvalidTransition
	}
	delete(r.s.orders, orderID)
	return nil
}

func (r memOrders) UpdateFulfillment(_ context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	allowed := (o.Status == model.OrderStatusPaid && status == model.OrderStatusShipped) ||
		(o.Status == model.OrderStatusShipped && status == model.OrderStatusDelivered)
	if !allowed {
		return nil, domainErrors.ErrInvalidTransition
	}
	o.Status = status
	return copyOrder(o), nil
}

func (r memOrders) StalePending(_ context.Context, before time.Time, limit int) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Orders.StalePending"); err != nil {
		return nil, err
	}
	var out []model.Order
	for _, o := range r.s.orders {
		if o.Deletable() && o.CreatedAt.Before(before) {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

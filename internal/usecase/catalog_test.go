package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
	testhelpers "github.com/polkiloo/shopmart/internal/test"
)

func newCatalog(t *testing.T) (*CatalogUseCase, *testhelpers.MemStore, *testhelpers.CacheStub) {
	t.Helper()
	store := testhelpers.NewMemStore()
	cache := &testhelpers.CacheStub{}
	return NewCatalogUseCase(store.Products(), store.Inventory(), store.Reviews(), cache, nil), store, cache
}

func TestCatalogListProducts(t *testing.T) {
	uc, store, _ := newCatalog(t)
	ctx := context.Background()
	for _, name := range []string{"Red Apple", "Green Apple", "Pear", "Apple Pie", "Plum", "Fig", "Kiwi", "Lime", "Lemon", "Grape"} {
		store.AddProduct(model.Product{Name: name, Price: 100, Stock: 1, Category: model.CategoryFood})
	}
	store.AddProduct(model.Product{Name: "Apple Watch", Price: 5000, Stock: 1, Category: model.CategoryElectronics})

	page, err := uc.ListProducts(ctx, model.ProductFilter{}, model.PageRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Size != 8 || len(page.Items) != 8 || page.TotalElements != 11 {
		t.Fatalf("unexpected default page: size=%d items=%d total=%d", page.Size, len(page.Items), page.TotalElements)
	}

	page, err = uc.ListProducts(ctx, model.ProductFilter{Keyword: " apple "}, model.PageRequest{Size: 20})
	if err != nil || page.TotalElements != 4 {
		t.Fatalf("expected 4 apples, got %d err=%v", page.TotalElements, err)
	}

	page, err = uc.ListProducts(ctx, model.ProductFilter{Keyword: "apple", Category: model.CategoryElectronics}, model.PageRequest{})
	if err != nil || page.TotalElements != 1 || page.Items[0].Name != "Apple Watch" {
		t.Fatalf("unexpected filtered page %+v err=%v", page, err)
	}

	if _, err := uc.ListProducts(ctx, model.ProductFilter{Category: "BOOKS"}, model.PageRequest{}); !errors.Is(err, domainErrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCatalogGetProductReadsThroughCache(t *testing.T) {
	uc, store, cache := newCatalog(t)
	ctx := context.Background()
	apple := store.AddProduct(model.Product{Name: "Apple", Price: 100, Stock: 3})

	got, err := uc.GetProduct(ctx, apple.ID)
	if err != nil || got.Name != "Apple" {
		t.Fatalf("unexpected product %+v err=%v", got, err)
	}
	if _, ok := cache.Items[apple.ID]; !ok {
		t.Fatal("expected product to be cached after miss")
	}

	cache.Items[apple.ID] = model.Product{ID: apple.ID, Name: "Cached Apple"}
	got, err = uc.GetProduct(ctx, apple.ID)
	if err != nil || got.Name != "Cached Apple" {
		t.Fatalf("expected cached copy, got %+v err=%v", got, err)
	}

	if _, err := uc.GetProduct(ctx, 999); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalogProductDetail(t *testing.T) {
	uc, store, _ := newCatalog(t)
	ctx := context.Background()
	apple := store.AddProduct(model.Product{Name: "Apple", Price: 100, Stock: 3})
	for i := 0; i < 7; i++ {
		user := store.AddUser(model.User{Username: string(rune('a' + i))})
		if _, err := store.Reviews().Create(ctx, &model.Review{ProductID: apple.ID, UserID: user.ID, Rating: 4, Content: "ok"}); err != nil {
			t.Fatalf("seed review: %v", err)
		}
	}

	detail, err := uc.ProductDetail(ctx, apple.ID, model.PageRequest{})
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Product.ID != apple.ID || detail.Reviews.Size != 5 || len(detail.Reviews.Items) != 5 || detail.Reviews.TotalPages() != 2 {
		t.Fatalf("unexpected detail %+v", detail.Reviews)
	}
	if detail.Reviews.Items[0].ID < detail.Reviews.Items[1].ID {
		t.Fatal("expected newest reviews first")
	}

	if _, err := uc.ProductDetail(ctx, 999, model.PageRequest{}); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalogPopularProducts(t *testing.T) {
	uc, store, _ := newCatalog(t)
	ctx := context.Background()
	user := store.AddUser(model.User{Username: "kim"})
	products := make([]*model.Product, 4)
	for i := range products {
		products[i] = store.AddProduct(model.Product{Name: string(rune('A' + i)), Price: 10, Stock: 100})
	}

	sell := func(p *model.Product, qty int, status model.OrderStatus) {
		order, err := store.Orders().Create(ctx, &model.Order{
			UserID: user.ID, Status: model.OrderStatusPending, Source: model.OrderSourceDirect,
			Lines: []model.OrderLine{{ProductID: p.ID, ProductName: p.Name, Quantity: qty, UnitPrice: p.Price}},
		})
		if err != nil {
			t.Fatalf("create order: %v", err)
		}
		if status == model.OrderStatusPending {
			return
		}
		if err := store.Orders().SetTransactionID(ctx, order.ID, "T"); err != nil {
			t.Fatalf("tid: %v", err)
		}
		if _, err := store.Orders().MarkPaid(ctx, order.ID); err != nil {
			t.Fatalf("paid: %v", err)
		}
		if status == model.OrderStatusShipped {
			if _, err := store.Orders().UpdateFulfillment(ctx, order.ID, status); err != nil {
				t.Fatalf("ship: %v", err)
			}
		}
	}
	sell(products[0], 1, model.OrderStatusPaid)
	sell(products[1], 5, model.OrderStatusShipped)
	sell(products[2], 3, model.OrderStatusPaid)
	sell(products[3], 9, model.OrderStatusPending)

	popular, err := uc.PopularProducts(ctx)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if len(popular) != 3 {
		t.Fatalf("expected top 3, got %d", len(popular))
	}
	if popular[0].ID != products[1].ID || popular[0].Sold != 5 || popular[1].ID != products[2].ID || popular[2].ID != products[0].ID {
		t.Fatalf("unexpected ranking %+v", popular)
	}

	uc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	popular, err = uc.PopularProducts(ctx)
	if err != nil || len(popular) != 0 {
		t.Fatalf("expected no sales in window, got %+v err=%v", popular, err)
	}
}

func TestCatalogAdministration(t *testing.T) {
	uc, store, cache := newCatalog(t)
	ctx := context.Background()

	invalid := []model.Product{
		{Name: " ", Price: 1, Category: model.CategoryFood},
		{Name: "x", Price: -1, Category: model.CategoryFood},
		{Name: "x", Stock: -1, Category: model.CategoryFood},
		{Name: "x", Category: "BOOKS"},
	}
	for _, p := range invalid {
		p := p
		if _, err := uc.CreateProduct(ctx, &p); !errors.Is(err, domainErrors.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", p, err)
		}
	}

	created, err := uc.CreateProduct(ctx, &model.Product{Name: " Desk ", Price: 9000, Stock: 2, Category: model.CategoryFurniture})
	if err != nil || created.Name != "Desk" {
		t.Fatalf("unexpected product %+v err=%v", created, err)
	}
	if _, err := uc.CreateProduct(ctx, &model.Product{Name: "Desk", Category: model.CategoryFurniture}); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	created.Price = 8000
	updated, err := uc.UpdateProduct(ctx, created)
	if err != nil || updated.Price != 8000 {
		t.Fatalf("unexpected update %+v err=%v", updated, err)
	}
	if _, err := uc.UpdateProduct(ctx, &model.Product{Name: "Ghost", Category: model.CategoryToys}); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	user := store.AddUser(model.User{Username: "kim"})
	chair := store.AddProduct(model.Product{Name: "Chair", Price: 10, Stock: 5, Category: model.CategoryFurniture})
	if _, err := store.Orders().Create(ctx, &model.Order{UserID: user.ID, Status: model.OrderStatusPending,
		Lines: []model.OrderLine{{ProductID: chair.ID, Quantity: 1, UnitPrice: 10}}}); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	if err := uc.DeleteProduct(ctx, chair.ID); !errors.Is(err, domainErrors.ErrInUse) {
		t.Fatalf("expected in use, got %v", err)
	}
	if err := uc.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := uc.DeleteProduct(ctx, created.ID); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if len(cache.Invalidated) != 2 || cache.Invalidated[0] != created.ID || cache.Invalidated[1] != created.ID {
		t.Fatalf("expected invalidation on update and delete, got %v", cache.Invalidated)
	}
}

func TestCatalogAdjustStock(t *testing.T) {
	uc, store, cache := newCatalog(t)
	ctx := context.Background()
	apple := store.AddProduct(model.Product{Name: "Apple", Price: 1000, Stock: 3, Category: model.CategoryFood})

	stock, err := uc.AdjustStock(ctx, apple.ID, 7)
	if err != nil || stock != 10 {
		t.Fatalf("restock: stock=%d err=%v", stock, err)
	}
	stock, err = uc.AdjustStock(ctx, apple.ID, -4)
	if err != nil || stock != 6 {
		t.Fatalf("write off: stock=%d err=%v", stock, err)
	}
	if len(cache.Invalidated) != 2 || cache.Invalidated[0] != apple.ID {
		t.Fatalf("expected cache invalidation per change, got %v", cache.Invalidated)
	}

	if _, err := uc.AdjustStock(ctx, apple.ID, -7); !errors.Is(err, domainErrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if _, err := uc.AdjustStock(ctx, apple.ID, 0); !errors.Is(err, domainErrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := uc.AdjustStock(ctx, 999, 1); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if s := store.StockOf(apple.ID); s != 6 {
		t.Fatalf("failed adjustments must not change stock, got %d", s)
	}
}

package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/metrics"
	testhelpers "github.com/polkiloo/shopmart/internal/test"
)

type orderFixture struct {
	store     *testhelpers.MemStore
	gateway   *testhelpers.GatewayStub
	cache     *testhelpers.CacheStub
	publisher *testhelpers.PublisherStub
	uc        *OrderUseCase
	user      *model.User
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		store:     testhelpers.NewMemStore(),
		gateway:   &testhelpers.GatewayStub{},
		cache:     &testhelpers.CacheStub{},
		publisher: &testhelpers.PublisherStub{},
	}
	f.uc = NewOrderUseCase(f.store, f.gateway, f.cache, f.publisher, metrics.New(), discardLogger(), OrderOptions{
		CID:             "TC0ONETIME",
		CallbackBaseURL: "http://shop.test/",
	})
	f.user = f.store.AddUser(model.User{Username: "kim", Address: "Seoul", Enabled: true})
	return f
}

func (f *orderFixture) product(t *testing.T, name string, price int64, stock int) *model.Product {
	t.Helper()
	return f.store.AddProduct(model.Product{Name: name, Price: price, Stock: stock})
}

// readied creates a direct order and registers it with the gateway.
func (f *orderFixture) readied(t *testing.T, productID int64, qty int) *model.Order {
	t.Helper()
	ctx := context.Background()
	order, err := f.uc.CreatePendingOrder(ctx, f.user.ID, productID, qty)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := f.uc.ReadyPayment(ctx, f.user.ID, order); err != nil {
		t.Fatalf("ready payment: %v", err)
	}
	return order
}

func (f *orderFixture) paid(t *testing.T, productID int64, qty int) *model.Order {
	t.Helper()
	order := f.readied(t, productID, qty)
	if _, err := f.uc.ApprovePayment(context.Background(), order.ID, "pg-token"); err != nil {
		t.Fatalf("approve payment: %v", err)
	}
	return order
}

func TestCreatePendingOrderValidation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 5)

	cases := []struct {
		name      string
		userID    int64
		productID int64
		qty       int
		want      error
	}{
		{"zero quantity", f.user.ID, apple.ID, 0, domainErrors.ErrInvalidInput},
		{"above line limit", f.user.ID, apple.ID, 11, domainErrors.ErrInvalidInput},
		{"unknown user", 999, apple.ID, 1, domainErrors.ErrNotFound},
		{"unknown product", f.user.ID, 999, 1, domainErrors.ErrNotFound},
		{"more than stock", f.user.ID, apple.ID, 6, domainErrors.ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.uc.CreatePendingOrder(ctx, tc.userID, tc.productID, tc.qty); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if n := f.store.OrderCount(); n != 0 {
		t.Fatalf("expected nothing persisted, got %d orders", n)
	}
	if s := f.store.StockOf(apple.ID); s != 5 {
		t.Fatalf("expected stock untouched, got %d", s)
	}
}

func TestCreatePendingOrder(t *testing.T) {
	f := newOrderFixture(t)
	apple := f.product(t, "Apple", 1000, 5)

	order, err := f.uc.CreatePendingOrder(context.Background(), f.user.ID, apple.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != model.OrderStatusPending || order.Source != model.OrderSourceDirect {
		t.Fatalf("unexpected order state: %+v", order)
	}
	if order.TotalPrice != 3000 || len(order.Lines) != 1 || order.Lines[0].UnitPrice != 1000 {
		t.Fatalf("unexpected pricing: %+v", order)
	}
	if order.Address != "Seoul" || order.TransactionID != "" {
		t.Fatalf("unexpected order: %+v", order)
	}
	if s := f.store.StockOf(apple.ID); s != 5 {
		t.Fatalf("creation must not touch stock, got %d", s)
	}
}

func TestCreatePendingOrderFromCart(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	if _, err := f.uc.CreatePendingOrderFromCart(ctx, f.user.ID); !errors.Is(err, domainErrors.ErrEmptyCart) {
		t.Fatalf("expected empty cart, got %v", err)
	}

	apple := f.product(t, "Apple", 1000, 50)
	pear := f.product(t, "Pear", 250, 1)
	f.store.AddCartLine(f.user.ID, apple.ID, 3)
	pearLine := f.store.AddCartLine(f.user.ID, pear.ID, 2)

	if _, err := f.uc.CreatePendingOrderFromCart(ctx, f.user.ID); !errors.Is(err, domainErrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if _, err := f.store.Carts().UpdateLine(ctx, f.user.ID, pearLine, -1); err != nil {
		t.Fatalf("update line: %v", err)
	}

	order, err := f.uc.CreatePendingOrderFromCart(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Source != model.OrderSourceCart || len(order.Lines) != 2 || order.TotalPrice != 3250 {
		t.Fatalf("unexpected order: %+v", order)
	}
	if n := f.store.CartSize(f.user.ID); n != 2 {
		t.Fatalf("cart must stay intact until approval, got %d lines", n)
	}
}

func TestReadyPaymentBuildsRequest(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 50)
	pear := f.product(t, "Pear", 250, 50)
	f.store.AddCartLine(f.user.ID, apple.ID, 3)
	f.store.AddCartLine(f.user.ID, pear.ID, 2)

	order, err := f.uc.CreatePendingOrderFromCart(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ready, err := f.uc.ReadyPayment(ctx, f.user.ID, order)
	if err != nil {
		t.Fatalf("ready: %v", err)
	}

	id := strconv.FormatInt(order.ID, 10)
	if ready.TID != "T"+id || order.TransactionID != ready.TID {
		t.Fatalf("unexpected tid %q / %q", ready.TID, order.TransactionID)
	}
	if stored := f.store.Order(order.ID); stored.TransactionID != ready.TID {
		t.Fatalf("tid not persisted: %+v", stored)
	}

	req := f.gateway.Readies[0]
	want := model.PaymentReadyRequest{
		CID:            "TC0ONETIME",
		PartnerOrderID: id,
		PartnerUserID:  strconv.FormatInt(f.user.ID, 10),
		ItemName:       "Apple and 1 more",
		Quantity:       5,
		TotalAmount:    3500,
		ApprovalURL:    "http://shop.test/api/payment/success?orderId=" + id,
		CancelURL:      "http://shop.test/api/payment/cancel?orderId=" + id,
		FailURL:        "http://shop.test/api/payment/fail?orderId=" + id,
	}
	if req != want {
		t.Fatalf("unexpected request:\n got %+v\nwant %+v", req, want)
	}

	if _, err := f.uc.ReadyPayment(ctx, f.user.ID, order); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected second ready to be rejected, got %v", err)
	}
	if _, err := f.uc.ReadyPayment(ctx, f.user.ID+1, order); !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestReadyPaymentGatewayFailureIsRetryable(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 5)
	order, err := f.uc.CreatePendingOrder(ctx, f.user.ID, apple.ID, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.gateway.ReadyFn = func(context.Context, model.PaymentReadyRequest) (*model.PaymentReady, error) {
		return nil, &domainErrors.PaymentError{Op: "ready", StatusCode: 400, Detail: "invalid cid"}
	}
	if _, err := f.uc.ReadyPayment(ctx, f.user.ID, order); !errors.Is(err, domainErrors.ErrPayment) {
		t.Fatalf("expected payment error, got %v", err)
	}
	if stored := f.store.Order(order.ID); stored.TransactionID != "" || stored.Status != model.OrderStatusPending {
		t.Fatalf("order must be unchanged: %+v", stored)
	}

	f.gateway.ReadyFn = nil
	if _, err := f.uc.ReadyPayment(ctx, f.user.ID, order); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestReadyPaymentRejectsPaidOrder(t *testing.T) {
	f := newOrderFixture(t)
	apple := f.product(t, "Apple", 1000, 5)
	order := f.paid(t, apple.ID, 1)

	stored := f.store.Order(order.ID)
	stored.TransactionID = ""
	if _, err := f.uc.ReadyPayment(context.Background(), f.user.ID, stored); !errors.Is(err, domainErrors.ErrAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}
}

func TestCartCheckoutEndToEnd(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 50)
	f.store.AddCartLine(f.user.ID, apple.ID, 3)
	f.gateway.ReadyFn = func(context.Context, model.PaymentReadyRequest) (*model.PaymentReady, error) {
		return &model.PaymentReady{TID: "T1"}, nil
	}

	order, err := f.uc.CreatePendingOrderFromCart(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.uc.ReadyPayment(ctx, f.user.ID, order); err != nil {
		t.Fatalf("ready: %v", err)
	}
	approval, err := f.uc.ApprovePayment(ctx, order.ID, "pg-token")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if approval.TID != "T1" {
		t.Fatalf("unexpected approval: %+v", approval)
	}
	approve := f.gateway.Approves[0]
	if approve.TID != "T1" || approve.PGToken != "pg-token" || approve.CID != "TC0ONETIME" {
		t.Fatalf("unexpected approve request: %+v", approve)
	}

	stored := f.store.Order(order.ID)
	if stored.Status != model.OrderStatusPaid || stored.PaidAt == nil || stored.TransactionID != "T1" {
		t.Fatalf("unexpected order: %+v", stored)
	}
	if s := f.store.StockOf(apple.ID); s != 47 {
		t.Fatalf("expected stock 47, got %d", s)
	}
	if n := f.store.CartSize(f.user.ID); n != 0 {
		t.Fatalf("expected empty cart, got %d lines", n)
	}
	if len(f.cache.Invalidated) != 1 || f.cache.Invalidated[0] != apple.ID {
		t.Fatalf("expected cache invalidation of product, got %v", f.cache.Invalidated)
	}
	if types := f.publisher.OrderEventTypes(); len(types) != 1 || types[0] != model.EventOrderPaid {
		t.Fatalf("unexpected events %v", types)
	}
	if ev := f.publisher.OrderEvents[0]; ev.ApprovalID != approval.AID || ev.TotalPrice != 3000 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestDirectCheckoutKeepsCart(t *testing.T) {
	f := newOrderFixture(t)
	apple := f.product(t, "Apple", 1000, 50)
	f.store.AddCartLine(f.user.ID, apple.ID, 2)

	f.paid(t, apple.ID, 3)
	if n := f.store.CartSize(f.user.ID); n != 1 {
		t.Fatalf("direct order must not clear the cart, got %d lines", n)
	}
}

func TestApprovePaymentTwice(t *testing.T) {
	f := newOrderFixture(t)
	apple := f.product(t, "Apple", 1000, 50)
	order := f.paid(t, apple.ID, 3)

	if _, err := f.uc.ApprovePayment(context.Background(), order.ID, "pg-token"); !errors.Is(err, domainErrors.ErrAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}
	if s := f.store.StockOf(apple.ID); s != 47 {
		t.Fatalf("stock must be decremented once, got %d", s)
	}
	if n := f.gateway.ApproveCount(); n != 1 {
		t.Fatalf("gateway approve must not be called again, got %d calls", n)
	}
}

func TestApprovePaymentGuards(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 50)

	unready, err := f.uc.CreatePendingOrder(ctx, f.user.ID, apple.ID, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.uc.ApprovePayment(ctx, unready.ID, " "); !errors.Is(err, domainErrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty token, got %v", err)
	}
	if _, err := f.uc.ApprovePayment(ctx, 999, "pg"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.uc.ApprovePayment(ctx, unready.ID, "pg"); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition without tid, got %v", err)
	}
	if f.gateway.ApproveCount() != 0 {
		t.Fatal("gateway must not be called when guards fail")
	}
}

func TestApprovePaymentGatewayFailureLeavesOrderPending(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 50)
	order := f.readied(t, apple.ID, 3)

	f.gateway.ApproveFn = func(context.Context, model.PaymentApproveRequest) (*model.PaymentApproval, error) {
		return nil, &domainErrors.PaymentError{Op: "approve", Err: io.ErrUnexpectedEOF}
	}
	_, err := f.uc.ApprovePayment(ctx, order.ID, "pg")
	var paymentErr *domainErrors.PaymentError
	if !errors.As(err, &paymentErr) || paymentErr.Op != "approve" {
		t.Fatalf("expected payment error, got %v", err)
	}
	if stored := f.store.Order(order.ID); stored.Status != model.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", stored.Status)
	}
	if s := f.store.StockOf(apple.ID); s != 50 {
		t.Fatalf("stock must be untouched, got %d", s)
	}
	if len(f.publisher.OrderEvents) != 0 {
		t.Fatalf("no events expected, got %v", f.publisher.OrderEventTypes())
	}

	// a refused approval can be retried
	f.gateway.ApproveFn = nil
	if _, err := f.uc.ApprovePayment(ctx, order.ID, "pg"); err != nil {
		t.Fatalf("retry approve: %v", err)
	}
	if stored := f.store.Order(order.ID); stored.Status != model.OrderStatusPaid {
		t.Fatalf("expected paid order, got %s", stored.Status)
	}
}

func TestApprovePaymentStockConflictRequestsReconciliation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 3)
	order := f.readied(t, apple.ID, 3)

	if err := f.store.Inventory().Decrement(ctx, apple.ID, 2); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	if _, err := f.uc.ApprovePayment(ctx, order.ID, "pg"); !errors.Is(err, domainErrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if stored := f.store.Order(order.ID); stored.Status != model.OrderStatusPending {
		t.Fatalf("expected order to stay pending, got %s", stored.Status)
	}
	if s := f.store.StockOf(apple.ID); s != 1 {
		t.Fatalf("stock must not change, got %d", s)
	}
	types := f.publisher.OrderEventTypes()
	if len(types) != 1 || types[0] != model.EventReconcileRequired {
		t.Fatalf("expected reconcile event, got %v", types)
	}
	if f.publisher.OrderEvents[0].ApprovalID == "" || f.publisher.OrderEvents[0].Reason == "" {
		t.Fatalf("reconcile event must carry aid and reason: %+v", f.publisher.OrderEvents[0])
	}
}

func TestChargedOrderSurvivesSweepAndCancel(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 3)
	order := f.readied(t, apple.ID, 3)
	f.store.SetOrderCreatedAt(order.ID, time.Now().Add(-2*time.Hour))

	if err := f.store.Inventory().Decrement(ctx, apple.ID, 2); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if _, err := f.uc.ApprovePayment(ctx, order.ID, "pg"); !errors.Is(err, domainErrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	stale, err := f.uc.StalePendingOrders(ctx, time.Hour, 10)
	if err != nil {
		t.Fatalf("stale: %v", err)
	}
	if len(stale) != 0 {
		t.Fatalf("charged order must not be listed as stale: %+v", stale)
	}
	if err := f.uc.CancelPendingPayment(ctx, order.ID); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := f.uc.CancelOrder(ctx, order.ID); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := f.uc.ApprovePayment(ctx, order.ID, "pg"); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("second approval must be refused, got %v", err)
	}
	if stored := f.store.Order(order.ID); stored == nil || stored.Status != model.OrderStatusPending {
		t.Fatalf("charged order must be kept, got %+v", stored)
	}
	if n := f.gateway.ApproveCount(); n != 1 {
		t.Fatalf("gateway approve must be called once, got %d", n)
	}
}

func TestApprovalInFlightBlocksRemoval(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 5)
	order := f.readied(t, apple.ID, 1)

	var cancelErr error
	f.gateway.ApproveFn = func(_ context.Context, req model.PaymentApproveRequest) (*model.PaymentApproval, error) {
		cancelErr = f.uc.CancelPendingPayment(ctx, order.ID)
		return &model.PaymentApproval{AID: "A1", TID: req.TID}, nil
	}

	if _, err := f.uc.ApprovePayment(ctx, order.ID, "pg"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !errors.Is(cancelErr, domainErrors.ErrInvalidTransition) {
		t.Fatalf("cancel during approval must be refused, got %v", cancelErr)
	}
	if stored := f.store.Order(order.ID); stored.Status != model.OrderStatusPaid {
		t.Fatalf("expected paid order, got %s", stored.Status)
	}
}

func TestApprovePaymentSettlementFailureRequestsReconciliation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 5)
	order := f.readied(t, apple.ID, 1)

	f.store.Fail("Orders.MarkPaid", errors.New("connection reset"))
	if _, err := f.uc.ApprovePayment(ctx, order.ID, "pg"); err == nil {
		t.Fatal("expected error")
	}
	types := f.publisher.OrderEventTypes()
	if len(types) != 1 || types[0] != model.EventReconcileRequired {
		t.Fatalf("expected reconcile event, got %v", types)
	}
	if err := f.uc.CancelPendingPayment(ctx, order.ID); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestConcurrentApprovalsNeverOversell(t *testing.T) {
	f := newOrderFixture(t)
	apple := f.product(t, "Apple", 1000, 1)
	first := f.readied(t, apple.ID, 1)
	second := f.readied(t, apple.ID, 1)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)
	for _, id := range []int64{first.ID, second.ID} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.uc.ApprovePayment(context.Background(), id, "pg")
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domainErrors.ErrInsufficientStock):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Fatalf("expected one success and one conflict, got %d/%d", ok, conflicts)
	}
	if s := f.store.StockOf(apple.ID); s != 0 {
		t.Fatalf("expected stock 0, got %d", s)
	}
}

func TestPublishFailureDoesNotFailApproval(t *testing.T) {
	f := newOrderFixture(t)
	f.publisher.Err = errors.New("broker down")
	apple := f.product(t, "Apple", 1000, 5)

	order := f.paid(t, apple.ID, 1)
	if stored := f.store.Order(order.ID); stored.Status != model.OrderStatusPaid {
		t.Fatalf("expected paid order, got %s", stored.Status)
	}
}

func TestCancelPendingPayment(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 50)

	pending := f.readied(t, apple.ID, 2)
	if err := f.uc.CancelPendingPayment(ctx, pending.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.store.Order(pending.ID) != nil {
		t.Fatal("expected pending order to be deleted")
	}
	if s := f.store.StockOf(apple.ID); s != 50 {
		t.Fatalf("stock must be untouched, got %d", s)
	}

	if err := f.uc.CancelPendingPayment(ctx, pending.ID); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	paid := f.paid(t, apple.ID, 2)
	if err := f.uc.CancelPendingPayment(ctx, paid.ID); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for paid order, got %v", err)
	}
	if f.store.Order(paid.ID) == nil {
		t.Fatal("paid order must never be deleted")
	}
}

func TestCancelOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 50)

	paid := f.paid(t, apple.ID, 3)
	cancelled, err := f.uc.CancelOrder(ctx, paid.ID)
	if err != nil {
		t.Fatalf("cancel paid: %v", err)
	}
	if cancelled.Status != model.OrderStatusCancelled {
		t.Fatalf("unexpected status %s", cancelled.Status)
	}
	if s := f.store.StockOf(apple.ID); s != 50 {
		t.Fatalf("expected stock restored to 50, got %d", s)
	}
	if _, err := f.uc.CancelOrder(ctx, paid.ID); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on second cancel, got %v", err)
	}

	pending := f.readied(t, apple.ID, 4)
	if _, err := f.uc.CancelOrder(ctx, pending.ID); err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if s := f.store.StockOf(apple.ID); s != 50 {
		t.Fatalf("cancelling a pending order must not add stock, got %d", s)
	}

	shipped := f.paid(t, apple.ID, 1)
	if _, err := f.uc.AdvanceFulfillment(ctx, shipped.ID, model.OrderStatusShipped); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if _, err := f.uc.CancelOrder(ctx, shipped.ID); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for shipped order, got %v", err)
	}

	cancelEvents := 0
	for _, typ := range f.publisher.OrderEventTypes() {
		if typ == model.EventOrderCancelled {
			cancelEvents++
		}
	}
	if cancelEvents != 2 {
		t.Fatalf("expected two cancel events, got %d", cancelEvents)
	}
}

func TestCancelOrderForUser(t *testing.T) {
	f := newOrderFixture(t)
	apple := f.product(t, "Apple", 1000, 50)
	order := f.paid(t, apple.ID, 1)

	if _, err := f.uc.CancelOrderForUser(context.Background(), f.user.ID+100, order.ID); !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := f.uc.CancelOrderForUser(context.Background(), f.user.ID, order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOrderQueries(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 50)

	var last *model.Order
	for i := 0; i < 12; i++ {
		o, err := f.uc.CreatePendingOrder(ctx, f.user.ID, apple.ID, 1)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		last = o
	}

	page, err := f.uc.ListOrdersByUser(ctx, f.user.ID, model.PageRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Size != 10 || len(page.Items) != 10 || page.TotalElements != 12 || page.TotalPages() != 2 {
		t.Fatalf("unexpected page: size=%d items=%d total=%d", page.Size, len(page.Items), page.TotalElements)
	}
	if page.Items[0].ID != last.ID {
		t.Fatalf("expected newest first, got %d", page.Items[0].ID)
	}

	if _, err := f.uc.GetOrderForUser(ctx, f.user.ID+1, last.ID); !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	got, err := f.uc.GetOrderForUser(ctx, f.user.ID, last.ID)
	if err != nil || got.ID != last.ID {
		t.Fatalf("unexpected order %+v err=%v", got, err)
	}
	if _, err := f.uc.GetOrder(ctx, 999); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdvanceFulfillment(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 50)

	pending := f.readied(t, apple.ID, 1)
	if _, err := f.uc.AdvanceFulfillment(ctx, pending.ID, model.OrderStatusShipped); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	paid := f.paid(t, apple.ID, 1)
	if _, err := f.uc.AdvanceFulfillment(ctx, paid.ID, model.OrderStatusCancelled); !errors.Is(err, domainErrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := f.uc.AdvanceFulfillment(ctx, paid.ID, model.OrderStatusDelivered); !errors.Is(err, domainErrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition when skipping shipping, got %v", err)
	}
	shipped, err := f.uc.AdvanceFulfillment(ctx, paid.ID, model.OrderStatusShipped)
	if err != nil || shipped.Status != model.OrderStatusShipped {
		t.Fatalf("unexpected result %+v err=%v", shipped, err)
	}
	delivered, err := f.uc.AdvanceFulfillment(ctx, paid.ID, model.OrderStatusDelivered)
	if err != nil || delivered.Status != model.OrderStatusDelivered {
		t.Fatalf("unexpected result %+v err=%v", delivered, err)
	}
}

func TestStalePendingOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	apple := f.product(t, "Apple", 1000, 50)

	old, err := f.uc.CreatePendingOrder(ctx, f.user.ID, apple.ID, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.store.SetOrderCreatedAt(old.ID, time.Now().Add(-2*time.Hour))
	if _, err := f.uc.CreatePendingOrder(ctx, f.user.ID, apple.ID, 1); err != nil {
		t.Fatalf("create: %v", err)
	}

	stale, err := f.uc.StalePendingOrders(ctx, time.Hour, 10)
	if err != nil {
		t.Fatalf("stale: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != old.ID {
		t.Fatalf("unexpected stale orders %+v", stale)
	}
}

func TestItemName(t *testing.T) {
	cases := []struct {
		lines []model.OrderLine
		want  string
	}{
		{nil, ""},
		{[]model.OrderLine{{ProductName: "Apple"}}, "Apple"},
		{[]model.OrderLine{{ProductName: "Apple"}, {ProductName: "Pear"}, {ProductName: "Plum"}}, "Apple and 2 more"},
	}
	for _, tc := range cases {
		if got := itemName(tc.lines); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

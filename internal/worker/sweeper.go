package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/shopmart/internal/domain/errors"
	"github.com/polkiloo/shopmart/internal/domain/model"
	"github.com/polkiloo/shopmart/internal/metrics"
)

// PendingOrders exposes the subset of application functionality required by the sweeper.
type PendingOrders interface {
	StalePendingOrders(ctx context.Context, olderThan time.Duration, limit int) ([]model.Order, error)
	CancelPendingPayment(ctx context.Context, orderID int64) error
}

// SweeperOptions tunes the sweep loop.
type SweeperOptions struct {
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
	Workers   int
}

// PendingOrderSweeper periodically drops checkouts that were never paid.
type PendingOrderSweeper struct {
	orders  PendingOrders
	opts    SweeperOptions
	metrics *metrics.Metrics
	logger  *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewPendingOrderSweeper constructs the sweeper worker pool.
func NewPendingOrderSweeper(orders PendingOrders, opts SweeperOptions, m *metrics.Metrics, logger *slog.Logger) *PendingOrderSweeper {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	return &PendingOrderSweeper{
		orders:  orders,
		opts:    opts,
		metrics: m,
		logger:  logger,
	}
}

// Start launches background sweeping. The loop outlives ctx and runs until Stop.
func (s *PendingOrderSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.jobs = make(chan model.Order, s.opts.BatchSize)

	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx, s.jobs)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx, s.jobs)
}

// Stop waits for all workers to finish.
func (s *PendingOrderSweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *PendingOrderSweeper) dispatch(ctx context.Context, jobs chan<- model.Order) {
	defer s.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetchAndDispatch(ctx, jobs)
		}
	}
}

func (s *PendingOrderSweeper) fetchAndDispatch(ctx context.Context, jobs chan<- model.Order) {
	orders, err := s.orders.StalePendingOrders(ctx, s.opts.MaxAge, s.opts.BatchSize)
	if err != nil {
		s.logger.Error("fetch stale orders failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case jobs <- order:
		}
	}
}

func (s *PendingOrderSweeper) worker(ctx context.Context, jobs <-chan model.Order) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-jobs:
			if !ok {
				return
			}
			s.handleOrder(ctx, order)
		}
	}
}

// handleOrder finishes a started removal even when Stop cancels ctx.
func (s *PendingOrderSweeper) handleOrder(ctx context.Context, order model.Order) {
	err := s.orders.CancelPendingPayment(context.WithoutCancel(ctx), order.ID)
	switch {
	case err == nil:
		s.metrics.OrdersSwept(1)
		s.logger.Info("abandoned order removed", slog.Int64("order_id", order.ID), slog.Time("created_at", order.CreatedAt))
	case errors.Is(err, domainErrors.ErrNotFound), errors.Is(err, domainErrors.ErrInvalidTransition):
		// paid or cancelled by the buyer since it was listed
		s.logger.Debug("stale order no longer pending", slog.Int64("order_id", order.ID))
	default:
		s.logger.Error("remove abandoned order failed", slog.Int64("order_id", order.ID), slog.String("error", err.Error()))
	}
}

package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/polkiloo/shopmart/internal/domain/model"
)

// GatewayStub answers payment calls with fixed or overridden results and
// records every request it sees.
type GatewayStub struct {
	ReadyFn   func(context.Context, model.PaymentReadyRequest) (*model.PaymentReady, error)
	ApproveFn func(context.Context, model.PaymentApproveRequest) (*model.PaymentApproval, error)

	mu       sync.Mutex
	Readies  []model.PaymentReadyRequest
	Approves []model.PaymentApproveRequest
}

// Ready returns tid "T<partner_order_id>" unless overridden.
func (g *GatewayStub) Ready(ctx context.Context, req model.PaymentReadyRequest) (*model.PaymentReady, error) {
	g.mu.Lock()
	g.Readies = append(g.Readies, req)
	g.mu.Unlock()
	if g.ReadyFn != nil {
		return g.ReadyFn(ctx, req)
	}
	return &model.PaymentReady{
		TID:               "T" + req.PartnerOrderID,
		NextRedirectPCURL: fmt.Sprintf("https://pay.example.com/%s", req.PartnerOrderID),
	}, nil
}

// Approve echoes the request back as an approval unless overridden.
func (g *GatewayStub) Approve(ctx context.Context, req model.PaymentApproveRequest) (*model.PaymentApproval, error) {
	g.mu.Lock()
	g.Approves = append(g.Approves, req)
	g.mu.Unlock()
	if g.ApproveFn != nil {
		return g.ApproveFn(ctx, req)
	}
	return &model.PaymentApproval{
		AID:            "A-" + req.TID,
		TID:            req.TID,
		CID:            req.CID,
		PartnerOrderID: req.PartnerOrderID,
		PartnerUserID:  req.PartnerUserID,
	}, nil
}

// ApproveCount returns the number of approve calls seen so far.
func (g *GatewayStub) ApproveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Approves)
}

// CacheStub is a map backed product cache.
type CacheStub struct {
	mu          sync.Mutex
	Items       map[int64]model.Product
	Invalidated []int64
}

func (c *CacheStub) Get(_ context.Context, id int64) (*model.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.Items[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *CacheStub) Set(_ context.Context, product *model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Items == nil {
		c.Items = make(map[int64]model.Product)
	}
	c.Items[product.ID] = *product
}

func (c *CacheStub) Invalidate(_ context.Context, ids ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.Items, id)
	}
	c.Invalidated = append(c.Invalidated, ids...)
}

// PublisherStub records published events.
type PublisherStub struct {
	Err error

	mu          sync.Mutex
	OrderEvents []model.OrderEvent
	UserEvents  []model.UserEvent
}

func (p *PublisherStub) PublishOrderEvent(_ context.Context, event model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.OrderEvents = append(p.OrderEvents, event)
	return p.Err
}

func (p *PublisherStub) PublishUserEvent(_ context.Context, event model.UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.UserEvents = append(p.UserEvents, event)
	return p.Err
}

// OrderEventTypes lists recorded order event types in publish order.
func (p *PublisherStub) OrderEventTypes() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, 0, len(p.OrderEvents))
	for _, e := range p.OrderEvents {
		out = append(out, e.Type)
	}
	return out
}

package order

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/fast-pizza/internal/events"
)

// PriorityController flags existing orders as priority.
type PriorityController struct {
	orders  Repository
	events  events.Publisher
	now     func() time.Time
	updates metric.Int64Counter

	mu       sync.Mutex
	inflight map[string]int
}

// NewPriorityController creates a PriorityController.
func NewPriorityController(orders Repository, pub events.Publisher, meter metric.Meter) (*PriorityController, error) {
	updates, err := meter.Int64Counter("orders.prioritized",
		metric.WithDescription("Orders switched to priority after creation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.prioritized counter")
	}
	return &PriorityController{
		orders:   orders,
		events:   pub,
		now:      time.Now,
		updates:  updates,
		inflight: make(map[string]int),
	}, nil
}

// Submitting reports whether a priority update for id is in flight.
func (c *PriorityController) Submitting(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[id] > 0
}

func (c *PriorityController) begin(id string) {
	c.mu.Lock()
	c.inflight[id]++
	c.mu.Unlock()
}

func (c *PriorityController) done(id string) {
	c.mu.Lock()
	if c.inflight[id]--; c.inflight[id] <= 0 {
		delete(c.inflight, id)
	}
	c.mu.Unlock()
}

// MakePriority sends {priority: true} for order id. Failures are returned as
// *ServiceError.
func (c *PriorityController) MakePriority(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}

	c.begin(id)
	defer c.done(id)

	if err := c.orders.Update(ctx, id, Patch{Priority: true}); err != nil {
		return &ServiceError{Op: "update order", Err: err}
	}
	c.updates.Add(ctx, 1)

	lg := zctx.From(ctx).With(zap.String("order_id", id))
	lg.Info("Order prioritized")

	if err := c.events.Publish(ctx, events.OrderEvent{
		Type:       events.OrderPrioritized,
		OrderID:    id,
		Priority:   true,
		OccurredAt: c.now().UTC(),
	}); err != nil {
		lg.Warn("Publish order event", zap.Error(err))
	}
	return nil
}

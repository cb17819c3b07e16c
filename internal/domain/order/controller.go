package order

import (
	"context"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/fast-pizza/internal/events"
)

// CartClearer empties the cart an order was placed from.
type CartClearer interface {
	ClearCart(ctx context.Context) error
}

// Navigator receives the path the client should be sent to next.
type Navigator interface {
	Redirect(path string)
}

// Path returns the confirmation page path of an order.
func Path(id string) string {
	return "/order/" + url.PathEscape(id)
}

// FormController handles checkout form submissions.
type FormController struct {
	orders   Repository
	events   events.Publisher
	now      func() time.Time
	submits  metric.Int64Counter
	rejected metric.Int64Counter
}

// NewFormController creates a FormController.
func NewFormController(orders Repository, pub events.Publisher, meter metric.Meter) (*FormController, error) {
	submits, err := meter.Int64Counter("orders.submitted",
		metric.WithDescription("Orders created from the checkout form"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.submitted counter")
	}
	rejected, err := meter.Int64Counter("orders.rejected",
		metric.WithDescription("Checkout submissions rejected before reaching the order service"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.rejected counter")
	}
	return &FormController{
		orders:   orders,
		events:   pub,
		now:      time.Now,
		submits:  submits,
		rejected: rejected,
	}, nil
}

// Submit parses and validates raw, creates the order, clears the cart and
// redirects to the order's confirmation page.
//
// Parse and validation failures (*MalformedCartError, *ValidationError,
// ErrEmptyCart) return before the order service is called. An order service
// failure is returned as *ServiceError and leaves the cart untouched.
// Failures after the order was created are logged and do not fail Submit.
func (c *FormController) Submit(ctx context.Context, raw RawForm, cart CartClearer, nav Navigator) (*Record, error) {
	lg := zctx.From(ctx)

	sub, err := ParseForm(raw)
	if err != nil {
		c.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", rejectReason(err))))
		return nil, err
	}

	rec, err := c.orders.Create(ctx, sub)
	if err != nil {
		return nil, &ServiceError{Op: "create order", Err: err}
	}
	c.submits.Add(ctx, 1, metric.WithAttributes(attribute.Bool("priority", sub.Priority)))

	lg = lg.With(zap.String("order_id", rec.ID))
	lg.Info("Order created", zap.Bool("priority", sub.Priority), zap.Int("items", len(sub.Cart)))

	if err := cart.ClearCart(ctx); err != nil {
		lg.Warn("Clear cart after order", zap.Error(err))
	}

	if err := c.events.Publish(ctx, events.OrderEvent{
		Type:       events.OrderCreated,
		OrderID:    rec.ID,
		Priority:   rec.Priority,
		OccurredAt: c.now().UTC(),
	}); err != nil {
		lg.Warn("Publish order event", zap.Error(err))
	}

	nav.Redirect(Path(rec.ID))
	return rec, nil
}

func rejectReason(err error) string {
	var (
		vErr *ValidationError
		mErr *MalformedCartError
	)
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &mErr):
		return "malformed_cart"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	default:
		return "other"
	}
}

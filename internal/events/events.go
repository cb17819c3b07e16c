// Package events publishes order lifecycle events to downstream consumers.
package events

import (
	"context"
	"time"
)

// Type names an order lifecycle event.
type Type string

const (
	OrderCreated     Type = "order.created"
	OrderPrioritized Type = "order.prioritized"
)

// OrderEvent is published after an order changed.
type OrderEvent struct {
	Type       Type      `json:"type"`
	OrderID    string    `json:"orderId"`
	Priority   bool      `json:"priority"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers order events.
type Publisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, OrderEvent) error { return nil }

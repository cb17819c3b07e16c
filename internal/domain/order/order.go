// Package order builds order submissions from the checkout form and drives
// the order service calls behind it.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/fast-pizza/internal/domain/cart"
)

var (
	// ErrEmptyCart is returned when an order is submitted without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound is returned by a Repository for an unknown order id.
	ErrNotFound = errors.New("order not found")
	// ErrMissingID is returned when an operation needs an order id.
	ErrMissingID = errors.New("order id required")
)

// Submission is the typed order payload built from one submit attempt.
type Submission struct {
	Customer string
	Phone    string
	Address  string
	Cart     []cart.Item
	// Position is "<lat>, <lng>" or empty when the address was typed.
	Position string
	Priority bool
}

// Record is an order as returned by the order service.
type Record struct {
	ID                string
	Customer          string
	Phone             string
	Address           string
	Status            string
	Priority          bool
	PriorityPrice     decimal.Decimal
	OrderPrice        decimal.Decimal
	EstimatedDelivery time.Time
	Cart              []cart.Item
	Position          string
}

// Patch is a partial order update.
type Patch struct {
	Priority bool
}

// Repository is the order service.
type Repository interface {
	Create(ctx context.Context, sub *Submission) (*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	Update(ctx context.Context, id string, patch Patch) error
}

// ValidationError carries per-field messages for a rejected submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order form: %d field(s)", len(e.Fields))
}

// MalformedCartError indicates the serialized cart could not be decoded.
type MalformedCartError struct {
	Err error
}

func (e *MalformedCartError) Error() string {
	return fmt.Sprintf("malformed cart: %v", e.Err)
}

func (e *MalformedCartError) Unwrap() error { return e.Err }

// ServiceError indicates the order service call Op failed.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

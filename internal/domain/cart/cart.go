// Package cart holds the per-session shopping cart the order form is built
// from.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned when an item quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrInvalidPrice is returned when an item has a negative unit price.
	ErrInvalidPrice = errors.New("unit price must not be negative")
	// ErrMissingProduct is returned when an item has no product id.
	ErrMissingProduct = errors.New("product id required")
	// ErrItemNotFound is returned when the cart holds no item for a product.
	ErrItemNotFound = errors.New("item not in cart")
)

// Item is a single cart line.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns UnitPrice × Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Validate checks the item can be stored in a cart.
func (i Item) Validate() error {
	switch {
	case i.ProductID == "":
		return ErrMissingProduct
	case i.Quantity <= 0:
		return ErrInvalidQuantity
	case i.UnitPrice.IsNegative():
		return ErrInvalidPrice
	}
	return nil
}

// Total sums item subtotals.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Store keeps carts keyed by session id. Items are returned in insertion
// order.
type Store interface {
	Items(ctx context.Context, session string) ([]Item, error)
	Add(ctx context.Context, session string, item Item) error
	SetQuantity(ctx context.Context, session, productID string, quantity int) error
	Remove(ctx context.Context, session, productID string) error
	Clear(ctx context.Context, session string) error
}

// Session binds a Store to one session id.
type Session struct {
	store Store
	id    string
}

// ForSession returns the cart of the given session.
func ForSession(store Store, id string) *Session {
	return &Session{store: store, id: id}
}

// Items returns a snapshot of the session cart.
func (s *Session) Items(ctx context.Context) ([]Item, error) {
	return s.store.Items(ctx, s.id)
}

// TotalPrice returns the sum of the session cart's subtotals.
func (s *Session) TotalPrice(ctx context.Context) (decimal.Decimal, error) {
	items, err := s.store.Items(ctx, s.id)
	if err != nil {
		return decimal.Zero, err
	}
	return Total(items), nil
}

// ClearCart empties the session cart.
func (s *Session) ClearCart(ctx context.Context) error {
	return s.store.Clear(ctx, s.id)
}

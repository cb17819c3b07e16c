package cart

import (
	"context"
	"slices"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store. Carts live as long as the process.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]Item
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]Item)}
}

// Items returns a copy of the session cart.
func (s *MemoryStore) Items(_ context.Context, session string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.carts[session]), nil
}

// Add appends item to the cart, or increases the quantity of the line with
// the same product id.
func (s *MemoryStore) Add(_ context.Context, session string, item Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[session]
	if i := indexOf(items, item.ProductID); i >= 0 {
		items[i].Quantity += item.Quantity
		return nil
	}
	s.carts[session] = append(items, item)
	return nil
}

// SetQuantity replaces the quantity of a line. A zero quantity removes it.
func (s *MemoryStore) SetQuantity(_ context.Context, session, productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[session]
	i := indexOf(items, productID)
	if i < 0 {
		return ErrItemNotFound
	}
	if quantity == 0 {
		s.carts[session] = slices.Delete(items, i, i+1)
		return nil
	}
	items[i].Quantity = quantity
	return nil
}

// Remove deletes the line for productID.
func (s *MemoryStore) Remove(_ context.Context, session, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[session]
	i := indexOf(items, productID)
	if i < 0 {
		return ErrItemNotFound
	}
	s.carts[session] = slices.Delete(items, i, i+1)
	return nil
}

// Clear drops the whole session cart.
func (s *MemoryStore) Clear(_ context.Context, session string) error {
	s.mu.Lock()
	delete(s.carts, session)
	s.mu.Unlock()
	return nil
}

func indexOf(items []Item, productID string) int {
	return slices.IndexFunc(items, func(it Item) bool { return it.ProductID == productID })
}

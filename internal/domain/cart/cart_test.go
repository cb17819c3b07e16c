package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pizza(id string, price string, qty int) Item {
	return Item{
		ProductID: id,
		Name:      "Pizza " + id,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestTotal(t *testing.T) {
	items := []Item{pizza("1", "12.50", 2), pizza("2", "16", 1)}
	assert.True(t, decimal.RequireFromString("41").Equal(Total(items)))
	assert.True(t, decimal.Zero.Equal(Total(nil)))
}

func TestItem_Validate(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want error
	}{
		{"valid", pizza("1", "10", 1), nil},
		{"missing product", pizza("", "10", 1), ErrMissingProduct},
		{"zero quantity", pizza("1", "10", 0), ErrInvalidQuantity},
		{"negative price", pizza("1", "-1", 1), ErrInvalidPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Add(ctx, "a", pizza("1", "10", 1)))
	require.NoError(t, s.Add(ctx, "a", pizza("2", "12", 1)))
	require.NoError(t, s.Add(ctx, "a", pizza("1", "10", 2)))
	require.NoError(t, s.Add(ctx, "b", pizza("3", "9", 1)))

	items, err := s.Items(ctx, "a")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ProductID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "2", items[1].ProductID)

	// Returned slice is a copy.
	items[0].Quantity = 100
	again, err := s.Items(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, again[0].Quantity)

	require.NoError(t, s.SetQuantity(ctx, "a", "2", 4))
	require.NoError(t, s.SetQuantity(ctx, "a", "1", 0))
	items, err = s.Items(ctx, "a")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)

	assert.ErrorIs(t, s.SetQuantity(ctx, "a", "missing", 1), ErrItemNotFound)
	assert.ErrorIs(t, s.SetQuantity(ctx, "a", "2", -1), ErrInvalidQuantity)
	assert.ErrorIs(t, s.Remove(ctx, "a", "missing"), ErrItemNotFound)
	assert.ErrorIs(t, s.Add(ctx, "a", pizza("4", "1", 0)), ErrInvalidQuantity)

	require.NoError(t, s.Remove(ctx, "a", "2"))
	items, err = s.Items(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, items)

	// Other sessions are untouched.
	other, err := s.Items(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Add(ctx, "a", pizza("1", "12.50", 2)))

	sess := ForSession(s, "a")
	total, err := sess.TotalPrice(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25").Equal(total))

	require.NoError(t, sess.ClearCart(ctx))
	items, err := sess.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/fast-pizza/internal/domain/cart"
	"github.com/xenking/fast-pizza/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
	(id, customer, phone, address, position, priority, cart, order_price, priority_price, estimated_delivery)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	selectOrderSQL = `SELECT id, customer, phone, address, position, priority, status,
	cart, order_price, priority_price, estimated_delivery
	FROM orders WHERE id = $1`

	// Switching to priority charges the surcharge on the stored order price.
	prioritizeOrderSQL = `UPDATE orders
	SET priority = $2,
	    priority_price = CASE WHEN $2 THEN ROUND(order_price * $3, 2) ELSE 0 END
	WHERE id = $1`
)

// Delivery estimates.
const (
	regularDelivery  = 45 * time.Minute
	priorityDelivery = 25 * time.Minute
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, now: time.Now}
}

// Create prices and persists a new order. The cart is stored as JSONB.
func (r *OrderRepository) Create(ctx context.Context, sub *order.Submission) (*order.Record, error) {
	cartJSON, err := json.Marshal(sub.Cart)
	if err != nil {
		return nil, errors.Wrap(err, "marshal cart")
	}

	pricing := order.PriceCart(sub.Cart, sub.Priority)
	eta := regularDelivery
	if sub.Priority {
		eta = priorityDelivery
	}

	rec := &order.Record{
		ID:                uuid.NewString(),
		Customer:          sub.Customer,
		Phone:             sub.Phone,
		Address:           sub.Address,
		Status:            "preparing",
		Priority:          sub.Priority,
		PriorityPrice:     pricing.Priority,
		OrderPrice:        pricing.Cart,
		EstimatedDelivery: r.now().Add(eta).UTC(),
		Cart:              sub.Cart,
		Position:          sub.Position,
	}

	_, err = r.pool.Exec(ctx, insertOrderSQL,
		rec.ID, rec.Customer, rec.Phone, rec.Address, rec.Position, rec.Priority,
		cartJSON, rec.OrderPrice, rec.PriorityPrice, rec.EstimatedDelivery,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "insert order %q", rec.ID)
	}
	return rec, nil
}

// Get loads an order. Unknown ids return order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Record, error) {
	var (
		rec      order.Record
		cartJSON []byte
	)
	err := r.pool.QueryRow(ctx, selectOrderSQL, id).Scan(
		&rec.ID, &rec.Customer, &rec.Phone, &rec.Address, &rec.Position, &rec.Priority, &rec.Status,
		&cartJSON, &rec.OrderPrice, &rec.PriorityPrice, &rec.EstimatedDelivery,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select order %q", id)
	}

	var items []cart.Item
	if err := json.Unmarshal(cartJSON, &items); err != nil {
		return nil, errors.Wrapf(err, "unmarshal cart of order %q", id)
	}
	rec.Cart = items
	return &rec, nil
}

// Update applies patch. Unknown ids return order.ErrNotFound.
func (r *OrderRepository) Update(ctx context.Context, id string, patch order.Patch) error {
	tag, err := r.pool.Exec(ctx, prioritizeOrderSQL, id, patch.Priority, order.PrioritySurcharge)
	if err != nil {
		return errors.Wrapf(err, "update order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Ping checks database connectivity.
func (r *OrderRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}


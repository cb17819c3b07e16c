// Package restaurant is a client for the restaurant's order REST API.
package restaurant

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/fast-pizza/internal/domain/cart"
	"github.com/xenking/fast-pizza/internal/domain/order"
)

// DefaultBaseURL is the public Fast Pizza API.
const DefaultBaseURL = "https://react-fast-pizza-api.onrender.com/api"

const maxBody = 4 << 20

var _ order.Repository = (*Client)(nil)

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "restaurant api: status " + strconv.Itoa(e.StatusCode)
	}
	return "restaurant api: " + e.Message
}

// Client implements order.Repository over HTTP.
type Client struct {
	http    Doer
	baseURL string
}

// New returns a Client for the API at baseURL.
func New(client Doer, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type cartItemJSON struct {
	PizzaID    any         `json:"pizzaId"`
	Name       string      `json:"name"`
	Quantity   int         `json:"quantity"`
	UnitPrice  json.Number `json:"unitPrice"`
	TotalPrice json.Number `json:"totalPrice"`
}

type createOrderJSON struct {
	Customer string         `json:"customer"`
	Phone    string         `json:"phone"`
	Address  string         `json:"address"`
	Priority bool           `json:"priority"`
	Position string         `json:"position"`
	Cart     []cartItemJSON `json:"cart"`
}

type orderJSON struct {
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	Phone             string          `json:"phone"`
	Address           string          `json:"address"`
	Status            string          `json:"status"`
	Priority          bool            `json:"priority"`
	PriorityPrice     decimal.Decimal `json:"priorityPrice"`
	OrderPrice        decimal.Decimal `json:"orderPrice"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
	Position          string          `json:"position"`
	Cart              []struct {
		PizzaID   json.RawMessage `json:"pizzaId"`
		Name      string          `json:"name"`
		Quantity  int             `json:"quantity"`
		UnitPrice decimal.Decimal `json:"unitPrice"`
	} `json:"cart"`
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Create posts a new order.
func (c *Client) Create(ctx context.Context, sub *order.Submission) (*order.Record, error) {
	body := createOrderJSON{
		Customer: sub.Customer,
		Phone:    sub.Phone,
		Address:  sub.Address,
		Priority: sub.Priority,
		Position: sub.Position,
		Cart:     make([]cartItemJSON, len(sub.Cart)),
	}
	for i, it := range sub.Cart {
		body.Cart[i] = cartItemJSON{
			PizzaID:    productID(it.ProductID),
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  json.Number(it.UnitPrice.String()),
			TotalPrice: json.Number(it.Subtotal().String()),
		}
	}

	var out orderJSON
	if err := c.do(ctx, http.MethodPost, "/order", body, &out); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return out.record(), nil
}

// Get fetches an order. Unknown ids return order.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*order.Record, error) {
	var out orderJSON
	if err := c.do(ctx, http.MethodGet, "/order/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return out.record(), nil
}

// Update applies patch to an order. Unknown ids return order.ErrNotFound.
func (c *Client) Update(ctx context.Context, id string, patch order.Patch) error {
	body := struct {
		Priority bool `json:"priority"`
	}{Priority: patch.Priority}
	if err := c.do(ctx, http.MethodPatch, "/order/"+url.PathEscape(id), body, nil); err != nil {
		return errors.Wrapf(err, "update order %q", id)
	}
	return nil
}

// Ping checks the API answers at all. Any HTTP response counts as alive.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/menu", nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "ping restaurant api")
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return errors.Errorf("restaurant api status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	var env envelope
	if len(data) > 0 {
		if err := json.Unmarshal(data, &env); err != nil && resp.StatusCode < 300 {
			return errors.Wrap(err, "decode response")
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		return order.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(err, "decode order")
	}
	return nil
}

// productID sends numeric product ids as JSON numbers.
func productID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

func (o *orderJSON) record() *order.Record {
	rec := &order.Record{
		ID:                o.ID,
		Customer:          o.Customer,
		Phone:             o.Phone,
		Address:           o.Address,
		Status:            o.Status,
		Priority:          o.Priority,
		PriorityPrice:     o.PriorityPrice,
		OrderPrice:        o.OrderPrice,
		EstimatedDelivery: o.EstimatedDelivery,
		Position:          o.Position,
		Cart:              make([]cart.Item, len(o.Cart)),
	}
	for i, it := range o.Cart {
		rec.Cart[i] = cart.Item{
			ProductID: strings.Trim(string(it.PizzaID), `"`),
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return rec
}

package restaurant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/fast-pizza/internal/domain/cart"
	"github.com/xenking/fast-pizza/internal/domain/order"
)

const orderResponse = `{
	"status": "success",
	"data": {
		"id": "IIDSAT",
		"customer": "Jonas",
		"phone": "+1-555-123-4567",
		"address": "Berlin",
		"status": "preparing",
		"priority": true,
		"priorityPrice": 8.2,
		"orderPrice": 41,
		"estimatedDelivery": "2026-10-19T12:45:00.000Z",
		"position": "52.52, 13.405",
		"cart": [
			{"pizzaId": 1, "name": "Margherita", "quantity": 2, "unitPrice": 12.5, "totalPrice": 25}
		]
	}
}`

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.Client(), srv.URL+"/api/")
}

func TestClient_Create(t *testing.T) {
	var got map[string]any
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/order", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(orderResponse))
	})

	rec, err := c.Create(context.Background(), &order.Submission{
		Customer: "Jonas",
		Phone:    "+1-555-123-4567",
		Address:  "Berlin",
		Position: "52.52, 13.405",
		Priority: true,
		Cart: []cart.Item{
			{ProductID: "1", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.5"), Quantity: 2},
			{ProductID: "special", Name: "Chef's", UnitPrice: decimal.RequireFromString("20"), Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Jonas", got["customer"])
	assert.Equal(t, true, got["priority"])
	assert.Equal(t, "52.52, 13.405", got["position"])
	items, ok := got["cart"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, float64(1), first["pizzaId"])
	assert.Equal(t, 12.5, first["unitPrice"])
	assert.Equal(t, float64(25), first["totalPrice"])
	assert.Equal(t, "special", items[1].(map[string]any)["pizzaId"])

	assert.Equal(t, "IIDSAT", rec.ID)
	assert.True(t, rec.Priority)
	assert.Equal(t, "preparing", rec.Status)
	assert.True(t, decimal.RequireFromString("41").Equal(rec.OrderPrice))
	assert.True(t, decimal.RequireFromString("8.2").Equal(rec.PriorityPrice))
	assert.Equal(t, time.Date(2026, 10, 19, 12, 45, 0, 0, time.UTC), rec.EstimatedDelivery.UTC())
	require.Len(t, rec.Cart, 1)
	assert.Equal(t, "1", rec.Cart[0].ProductID)
}

func TestClient_CreateFailure(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"fail","message":"Phone number is invalid"}`))
	})

	_, err := c.Create(context.Background(), &order.Submission{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Phone number is invalid", apiErr.Message)
}

func TestClient_CreateBadGateway(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>upstream down</html>`))
	})

	_, err := c.Create(context.Background(), &order.Submission{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestClient_Get(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/order/IIDSAT" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":"fail","message":"Couldn't find order"}`))
			return
		}
		_, _ = w.Write([]byte(orderResponse))
	})

	rec, err := c.Get(context.Background(), "IIDSAT")
	require.NoError(t, err)
	assert.Equal(t, "Jonas", rec.Customer)

	_, err = c.Get(context.Background(), "NOPE")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestClient_Update(t *testing.T) {
	var body map[string]any
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/order/IIDSAT", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	require.NoError(t, c.Update(context.Background(), "IIDSAT", order.Patch{Priority: true}))
	assert.Equal(t, map[string]any{"priority": true}, body)
}

func TestClient_Ping(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.Ping(context.Background()))

	down := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	require.Error(t, down.Ping(context.Background()))
}

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/fast-pizza/internal/domain/order"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPhoneCmd(t *testing.T) {
	out, err := run(t, "phone", "+44 20 7946 0958")
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	_, err = run(t, "phone", "call me maybe")
	require.Error(t, err)
	assert.Equal(t, order.MsgInvalidPhone, err.Error())
}

func TestPriceCmd(t *testing.T) {
	const items = `[{"productId":"1","name":"Margherita","unitPrice":12.5,"quantity":2},{"productId":"7","name":"Diavola","unitPrice":16,"quantity":1}]`

	out, err := run(t, "price", items)
	require.NoError(t, err)
	assert.Contains(t, out, "cart:     41.00")
	assert.Contains(t, out, "total:    41.00")

	out, err = run(t, "price", "--priority", items)
	require.NoError(t, err)
	assert.Contains(t, out, "priority: 8.20")
	assert.Contains(t, out, "total:    49.20")

	_, err = run(t, "price", "{")
	var mErr *order.MalformedCartError
	assert.ErrorAs(t, err, &mErr)
}

func TestAddressCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "52.52", r.URL.Query().Get("latitude"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"locality":"Mitte","city":"Berlin","postcode":"10117","countryName":"Germany"}`))
	}))
	defer srv.Close()

	out, err := run(t, "--geocode-url", srv.URL, "address", "--lat", "52.52", "--lng", "13.405")
	require.NoError(t, err)
	assert.Equal(t, "Mitte, Berlin 10117, Germany\n", out)

	_, err = run(t, "--geocode-url", srv.URL, "address", "--lat", "north", "--lng", "13.405")
	assert.Error(t, err)
}

func TestOrderCmds(t *testing.T) {
	var patched bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/order/ABC":
			_, _ = w.Write([]byte(`{"status":"success","data":{"id":"ABC","customer":"Jonas","status":"preparing","priority":false,"orderPrice":41,"priorityPrice":0,"cart":[{"pizzaId":1,"name":"Margherita","quantity":2,"unitPrice":12.5,"totalPrice":25}]}}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/api/order/ABC":
			patched = true
			_, _ = w.Write([]byte(`{"status":"success"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":"fail","message":"Couldn't find order"}`))
		}
	}))
	defer srv.Close()
	api := srv.URL + "/api"

	out, err := run(t, "--api-url", api, "order", "get", "ABC")
	require.NoError(t, err)
	assert.Contains(t, out, "id:        ABC")
	assert.Contains(t, out, "total:     41.00")
	assert.Contains(t, out, "2x Margherita")

	out, err = run(t, "--api-url", api, "order", "prioritize", "ABC")
	require.NoError(t, err)
	assert.True(t, patched)
	assert.Equal(t, "order ABC is now priority\n", out)

	_, err = run(t, "--api-url", api, "order", "get", "NOPE")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestMigrateCmd_RequiresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}

// Package handler serves the checkout pages and the JSON cart and address
// endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/gorilla/mux"

	"github.com/xenking/fast-pizza/internal/domain/address"
	"github.com/xenking/fast-pizza/internal/domain/cart"
	"github.com/xenking/fast-pizza/internal/domain/order"
	"github.com/xenking/fast-pizza/pkg/httpmiddleware"
)

// IPLocator returns a Geolocator for a client IP address.
type IPLocator interface {
	For(ip string) address.Geolocator
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Carts    cart.Store
	Resolver *address.Resolver
	Locator  IPLocator
	Orders   order.Repository
	Form     *order.FormController
	Priority *order.PriorityController
}

// Handler serves the order flow.
type Handler struct {
	carts    cart.Store
	resolver *address.Resolver
	locator  IPLocator
	orders   order.Repository
	form     *order.FormController
	priority *order.PriorityController
	pages    *pages
}

// New creates a Handler.
func New(d Deps) (*Handler, error) {
	p, err := parsePages()
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return &Handler{
		carts:    d.Carts,
		resolver: d.Resolver,
		locator:  d.Locator,
		orders:   d.Orders,
		form:     d.Form,
		priority: d.Priority,
		pages:    p,
	}, nil
}

// Register adds the routes of h to r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/order/new", h.newOrder).Methods(http.MethodGet)
	r.HandleFunc("/order/new", h.submitOrder).Methods(http.MethodPost)
	r.HandleFunc("/order/{id}", h.getOrder).Methods(http.MethodGet)
	r.HandleFunc("/order/{id}", h.patchOrder).Methods(http.MethodPatch)
	r.HandleFunc("/order/{id}/priority", h.prioritizeOrder).Methods(http.MethodPost)

	r.HandleFunc("/api/address", h.getAddress).Methods(http.MethodGet)
	r.HandleFunc("/api/address", h.resolveAddress).Methods(http.MethodPost)

	r.HandleFunc("/api/cart", h.getCart).Methods(http.MethodGet)
	r.HandleFunc("/api/cart", h.clearCart).Methods(http.MethodDelete)
	r.HandleFunc("/api/cart/items", h.addCartItem).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/items/{productId}", h.setCartQuantity).Methods(http.MethodPatch)
	r.HandleFunc("/api/cart/items/{productId}", h.removeCartItem).Methods(http.MethodDelete)

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/order/new", http.StatusSeeOther)
	}).Methods(http.MethodGet)
}

func session(ctx context.Context) string {
	return httpmiddleware.SessionFromContext(ctx)
}

// sessionCart binds the cart store to the request's session.
func (h *Handler) sessionCart(ctx context.Context) *cart.Session {
	return cart.ForSession(h.carts, session(ctx))
}

var (
	_ order.Navigator   = (*redirect)(nil)
	_ order.CartClearer = (*cart.Session)(nil)
)

// redirect is the order.Navigator of one request.
type redirect struct {
	path string
}

func (r *redirect) Redirect(path string) { r.path = path }

// writeJSON writes the encoder contents with status.
func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes a {"code":..,"message":..} JSON error.
func writeError(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

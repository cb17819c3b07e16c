package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xenking/fast-pizza/internal/domain/cart"
)

const maxCartBody = 64 << 10

// mapCartError converts cart errors to an HTTP status.
func mapCartError(err error) int {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, cart.ErrMissingProduct):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) cartError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapCartError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Cart operation", zap.Error(err))
		msg = "internal error"
	}
	writeError(w, status, msg)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r, http.StatusOK)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxCartBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	var item cart.Item
	if err := json.Unmarshal(data, &item); err != nil {
		writeError(w, http.StatusBadRequest, "malformed cart item")
		return
	}
	if err := h.carts.Add(ctx, session(ctx), item); err != nil {
		h.cartError(w, r, err)
		return
	}
	h.writeCart(w, r, http.StatusCreated)
}

func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxCartBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	quantity, err := decodeQuantity(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.carts.SetQuantity(ctx, session(ctx), mux.Vars(r)["productId"], quantity); err != nil {
		h.cartError(w, r, err)
		return
	}
	h.writeCart(w, r, http.StatusOK)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.carts.Remove(ctx, session(ctx), mux.Vars(r)["productId"]); err != nil {
		h.cartError(w, r, err)
		return
	}
	h.writeCart(w, r, http.StatusOK)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.sessionCart(ctx).ClearCart(ctx); err != nil {
		h.cartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeQuantity reads {"quantity": n}.
func decodeQuantity(data []byte) (int, error) {
	quantity, found := 0, false
	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "quantity" {
			return d.Skip()
		}
		n, err := d.Int()
		if err != nil {
			return errors.Wrap(err, "quantity")
		}
		quantity, found = n, true
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "decode body")
	}
	if !found {
		return 0, errors.New("quantity required")
	}
	return quantity, nil
}

// writeCart writes {"items":[...],"totalPrice":"0.00"} for the session cart.
func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, status int) {
	ctx := r.Context()
	sc := h.sessionCart(ctx)
	items, err := sc.Items(ctx)
	if err != nil {
		h.cartError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("unitPrice")
		e.Str(it.UnitPrice.StringFixed(2))
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("totalPrice")
		e.Str(it.Subtotal().StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("totalQuantity")
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	e.Int(n)
	e.FieldStart("totalPrice")
	e.Str(cart.Total(items).StringFixed(2))
	e.ObjEnd()
	writeJSON(w, status, &e)
}

package handler

import (
	"math"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/fast-pizza/internal/domain/order"
)

// User-visible messages for failed order service calls.
const (
	msgCreateFailed   = "We could not place your order. Please try again."
	msgPriorityFailed = "We could not update your order. Please try again."
	msgLookupFailed   = "We could not load your order. Please try again."
)

// mapOrderError converts order errors to an HTTP status and message.
func mapOrderError(err error) (int, string) {
	var (
		vErr *order.ValidationError
		mErr *order.MalformedCartError
		sErr *order.ServiceError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity, "Please check the highlighted fields."
	case errors.As(err, &mErr):
		return http.StatusBadRequest, "Your cart could not be read. Please reload the page."
	case errors.Is(err, order.ErrEmptyCart), errors.Is(err, order.ErrMissingID):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound, order.ErrNotFound.Error()
	case errors.As(err, &sErr):
		switch sErr.Op {
		case "update order":
			return http.StatusBadGateway, msgPriorityFailed
		case "get order":
			return http.StatusBadGateway, msgLookupFailed
		}
		return http.StatusBadGateway, msgCreateFailed
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) newOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.formView(r)
	if err != nil {
		zctx.From(ctx).Error("Render order form", zap.Error(err))
		h.pages.error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.pages.form(w, http.StatusOK, view)
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.pages.error(w, http.StatusBadRequest, "malformed form")
		return
	}
	raw := order.FormFromValues(r.PostForm)

	nav := &redirect{}
	_, err := h.form.Submit(ctx, raw, h.sessionCart(ctx), nav)
	if err == nil {
		h.resolver.RememberCustomer(session(ctx), raw.Customer)
		http.Redirect(w, r, nav.path, http.StatusSeeOther)
		return
	}

	status, msg := mapOrderError(err)
	if status >= http.StatusInternalServerError {
		zctx.From(ctx).Error("Submit order", zap.Error(err))
	}
	view, vErr := h.formView(r)
	if vErr != nil {
		h.pages.error(w, status, msg)
		return
	}
	var fields map[string]string
	var valErr *order.ValidationError
	if errors.As(err, &valErr) {
		fields = valErr.Fields
	} else {
		view.SubmitError = msg
	}
	h.pages.form(w, status, view.WithInput(raw, fields))
}

// formView renders the checkout view for the request's session. The customer
// field is prefilled with the name the session last ordered under.
func (h *Handler) formView(r *http.Request) (*order.FormView, error) {
	ctx := r.Context()
	items, err := h.sessionCart(ctx).Items(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "cart items")
	}
	id := session(ctx)
	view, err := order.Render(items, h.resolver.State(id))
	if err != nil {
		return nil, err
	}
	if !view.Empty {
		view.Customer = h.resolver.Customer(id)
	}
	return view, nil
}

// orderView is the confirmation page model.
type orderView struct {
	*order.Record
	Total       decimal.Decimal
	MinutesLeft int
	Delivered   bool
	Submitting  bool
}

func newOrderView(rec *order.Record, now time.Time, submitting bool) orderView {
	v := orderView{
		Record:     rec,
		Total:      rec.OrderPrice.Add(rec.PriorityPrice),
		Submitting: submitting,
	}
	if left := rec.EstimatedDelivery.Sub(now); left > 0 {
		v.MinutesLeft = int(math.Ceil(left.Minutes()))
	} else {
		v.Delivered = true
	}
	return v
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	rec, err := h.orders.Get(ctx, id)
	if err != nil {
		status, msg := mapOrderError(&order.ServiceError{Op: "get order", Err: err})
		if status >= http.StatusInternalServerError {
			zctx.From(ctx).Error("Get order", zap.String("order_id", id), zap.Error(err))
		}
		h.pages.error(w, status, msg)
		return
	}
	h.pages.order(w, http.StatusOK, newOrderView(rec, time.Now(), h.priority.Submitting(id)))
}

func (h *Handler) patchOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	if err := h.priority.MakePriority(ctx, id); err != nil {
		status, msg := mapOrderError(err)
		if status >= http.StatusInternalServerError {
			zctx.From(ctx).Error("Make priority", zap.String("order_id", id), zap.Error(err))
		}
		writeError(w, status, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) prioritizeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	if err := h.priority.MakePriority(ctx, id); err != nil {
		status, msg := mapOrderError(err)
		if status >= http.StatusInternalServerError {
			zctx.From(ctx).Error("Make priority", zap.String("order_id", id), zap.Error(err))
		}
		h.pages.error(w, status, msg)
		return
	}
	http.Redirect(w, r, order.Path(id), http.StatusSeeOther)
}

package address

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Resolver runs the two-step address lookup and records its outcome in a
// Store.
type Resolver struct {
	geocoder ReverseGeocoder
	store    *Store
}

// NewResolver creates a Resolver writing to store.
func NewResolver(geocoder ReverseGeocoder, store *Store) *Resolver {
	return &Resolver{geocoder: geocoder, store: store}
}

// State returns the current lookup state for session.
func (r *Resolver) State(session string) State {
	return r.store.Get(session)
}

// Customer returns the customer name remembered for session.
func (r *Resolver) Customer(session string) string {
	return r.store.Customer(session)
}

// RememberCustomer records the name the session last ordered under, so the
// next checkout form can be prefilled with it.
func (r *Resolver) RememberCustomer(session, name string) {
	r.store.SetCustomer(session, name)
}

// Resolve locates the device with loc, reverse-geocodes the position and
// stores the formatted address for session. The returned State is the
// session's state after this lookup settled, which is a newer lookup's state
// if this one was superseded while in flight. The error is a
// *GeolocationError or *GeocodingServiceError.
func (r *Resolver) Resolve(ctx context.Context, session string, loc Geolocator) (State, error) {
	lg := zctx.From(ctx)
	span := trace.SpanFromContext(ctx)

	token := r.store.Begin(session)

	addr, pos, err := r.lookup(ctx, loc)
	if err != nil {
		span.RecordError(err)
		if !r.store.Reject(session, token, err.Error()) {
			lg.Debug("Discarding stale address lookup failure", zap.Uint64("token", token))
		}
		lg.Warn("Address lookup failed", zap.Error(err))
		return r.store.Get(session), err
	}

	if !r.store.Fulfill(session, token, pos, addr) {
		lg.Debug("Discarding stale address lookup result", zap.Uint64("token", token))
	}
	span.SetAttributes(attribute.String("address.status", string(StatusResolved)))
	return r.store.Get(session), nil
}

func (r *Resolver) lookup(ctx context.Context, loc Geolocator) (string, Position, error) {
	pos, err := loc.CurrentPosition(ctx)
	if err != nil {
		var gErr *GeolocationError
		if !errors.As(err, &gErr) {
			gErr = &GeolocationError{Err: err}
		}
		return "", Position{}, gErr
	}

	place, err := r.geocoder.Lookup(ctx, pos)
	if err != nil {
		var sErr *GeocodingServiceError
		if !errors.As(err, &sErr) {
			sErr = &GeocodingServiceError{Err: err}
		}
		return "", Position{}, sErr
	}

	return place.Format(), pos, nil
}

package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/fast-pizza/internal/domain/address"
	"github.com/xenking/fast-pizza/internal/geo"
	"github.com/xenking/fast-pizza/pkg/httpmiddleware"
)

// Form fields posted to the address endpoint.
const (
	fieldLatitude         = "latitude"
	fieldLongitude        = "longitude"
	fieldGeolocationError = "geolocationError"
	fieldNext             = "next"
)

var _ IPLocator = (*geo.IPLocator)(nil)

func (h *Handler) getAddress(w http.ResponseWriter, r *http.Request) {
	writeState(w, h.resolver.State(session(r.Context())))
}

// resolveAddress runs an address lookup for the session. Lookup failures are
// part of the returned state, not of the response status.
func (h *Handler) resolveAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}

	state, _ := h.resolver.Resolve(ctx, session(ctx), h.geolocator(r))

	if next := r.PostForm.Get(fieldNext); localPath(next) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	writeState(w, state)
}

// geolocator picks the position source for r: the browser-reported position
// or failure when present, otherwise the client IP.
func (h *Handler) geolocator(r *http.Request) address.Geolocator {
	if msg := r.PostForm.Get(fieldGeolocationError); msg != "" {
		return geo.Device{Err: msg}
	}
	lat, lng := r.PostForm.Get(fieldLatitude), r.PostForm.Get(fieldLongitude)
	if lat == "" && lng == "" {
		return h.locator.For(httpmiddleware.ClientIP(r))
	}
	pos, ok := parsePosition(lat, lng)
	if !ok {
		return geo.Device{Err: "invalid position"}
	}
	return geo.Device{Position: pos}
}

// parsePosition parses a decimal degree pair. NaN compares false against
// both bounds, so it is rejected explicitly.
func parsePosition(lat, lng string) (address.Position, bool) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil || math.IsNaN(la) || la < -90 || la > 90 {
		return address.Position{}, false
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil || math.IsNaN(lo) || lo < -180 || lo > 180 {
		return address.Position{}, false
	}
	return address.Position{Latitude: la, Longitude: lo}, true
}

// localPath reports whether p is a same-site absolute path.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "\\")
}

func writeState(w http.ResponseWriter, s address.State) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	e.Str(string(s.Status))
	e.FieldStart("position")
	if s.Position != nil {
		e.ObjStart()
		e.FieldStart("latitude")
		e.Float64(s.Position.Latitude)
		e.FieldStart("longitude")
		e.Float64(s.Position.Longitude)
		e.ObjEnd()
	} else {
		e.Null()
	}
	e.FieldStart("address")
	e.Str(s.Address)
	if s.Error != "" {
		e.FieldStart("error")
		e.Str(s.Error)
	}
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}

// Package address resolves the customer's delivery address from the device
// position and keeps the lookup state per session.
package address

import (
	"context"
	"fmt"
	"strconv"
)

// Status is the lifecycle state of an address lookup.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusResolved Status = "resolved"
	StatusError    Status = "error"
)

// undefined is rendered in place of a place field the geocoder did not
// return.
const undefined = "undefined"

// Position is a coordinate pair.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the position as "<lat>, <lng>" using the shortest decimal
// form of each coordinate.
func (p Position) String() string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + ", " + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}

// OptString is a string that may be absent.
type OptString struct {
	Value string
	Set   bool
}

// NewOptString returns a set OptString.
func NewOptString(v string) OptString {
	return OptString{Value: v, Set: true}
}

// Or returns the value if set, otherwise d.
func (o OptString) Or(d string) string {
	if o.Set {
		return o.Value
	}
	return d
}

// Place is a reverse geocoding result.
type Place struct {
	Locality    OptString
	City        OptString
	Postcode    OptString
	CountryName OptString
}

// Format renders the place as "<locality>, <city> <postcode>, <countryName>".
// Missing fields are rendered as the literal "undefined".
func (p Place) Format() string {
	return fmt.Sprintf("%s, %s %s, %s",
		p.Locality.Or(undefined),
		p.City.Or(undefined),
		p.Postcode.Or(undefined),
		p.CountryName.Or(undefined),
	)
}

// State is the observable state of a session's address lookup.
type State struct {
	Status   Status
	Position *Position
	Address  string
	Error    string
}

// PositionString returns the position form value: "<lat>, <lng>" once
// resolved, empty otherwise.
func (s State) PositionString() string {
	if s.Position == nil {
		return ""
	}
	return s.Position.String()
}

// Geolocator yields the device's current position.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// ReverseGeocoder describes a coordinate pair as a place.
type ReverseGeocoder interface {
	Lookup(ctx context.Context, pos Position) (*Place, error)
}

// GeolocationError indicates the device position could not be obtained:
// permission was denied or no position is available.
type GeolocationError struct {
	Err error
}

func (e *GeolocationError) Error() string { return e.Err.Error() }

func (e *GeolocationError) Unwrap() error { return e.Err }

// GeocodingServiceError indicates the reverse geocoding call failed.
type GeocodingServiceError struct {
	Err error
}

func (e *GeocodingServiceError) Error() string { return e.Err.Error() }

func (e *GeocodingServiceError) Unwrap() error { return e.Err }

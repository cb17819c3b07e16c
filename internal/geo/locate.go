package geo

import (
	"context"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/fast-pizza/internal/domain/address"
)

// DefaultIPLocateURL is the ip-api.com JSON endpoint.
const DefaultIPLocateURL = "http://ip-api.com/json"

// Device is a position reported by the browser's geolocation API. Err holds
// the browser's failure message when the user denied access or no position
// was available.
type Device struct {
	Position address.Position
	Err      string
}

var _ address.Geolocator = Device{}

// CurrentPosition implements address.Geolocator.
func (d Device) CurrentPosition(context.Context) (address.Position, error) {
	if d.Err != "" {
		return address.Position{}, &address.GeolocationError{Err: errors.New(d.Err)}
	}
	return d.Position, nil
}

// IPLocator estimates positions from client IP addresses with an ip-api
// compatible service.
type IPLocator struct {
	client  Doer
	baseURL string
}

// NewIPLocator returns a locator calling baseURL.
func NewIPLocator(client Doer, baseURL string) *IPLocator {
	if baseURL == "" {
		baseURL = DefaultIPLocateURL
	}
	return &IPLocator{client: client, baseURL: baseURL}
}

// For returns a Geolocator for the client at ip.
func (l *IPLocator) For(ip string) address.Geolocator {
	return ipGeolocator{l: l, ip: ip}
}

type ipGeolocator struct {
	l  *IPLocator
	ip string
}

// CurrentPosition implements address.Geolocator. Every failure is returned
// as *address.GeolocationError.
func (g ipGeolocator) CurrentPosition(ctx context.Context) (address.Position, error) {
	pos, err := g.l.locate(ctx, g.ip)
	if err != nil {
		return address.Position{}, &address.GeolocationError{Err: err}
	}
	return pos, nil
}

func (l *IPLocator) locate(ctx context.Context, ip string) (address.Position, error) {
	if ip == "" {
		return address.Position{}, errors.New("position unavailable: unknown client address")
	}
	body, err := getJSON(ctx, l.client, l.baseURL+"/"+url.PathEscape(ip))
	if err != nil {
		return address.Position{}, errors.Wrap(err, "locate ip")
	}

	var (
		pos            address.Position
		status, msg    string
		hasLat, hasLon bool
	)
	err = jx.DecodeBytes(body).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "status":
			status, err = d.Str()
		case "message":
			msg, err = d.Str()
		case "lat":
			pos.Latitude, err = d.Float64()
			hasLat = true
		case "lon":
			pos.Longitude, err = d.Float64()
			hasLon = true
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return address.Position{}, errors.Wrap(err, "decode ip location")
	}
	if status != "success" {
		if msg == "" {
			msg = "unknown error"
		}
		return address.Position{}, errors.Errorf("position unavailable: %s", msg)
	}
	if !hasLat || !hasLon {
		return address.Position{}, errors.New("position unavailable: incomplete response")
	}
	return pos, nil
}

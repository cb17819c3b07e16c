package geo

import (
	"context"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/fast-pizza/internal/domain/address"
)

// DefaultReverseGeocodeURL is BigDataCloud's free client-side endpoint.
const DefaultReverseGeocodeURL = "https://api.bigdatacloud.net/data/reverse-geocode-client"

var _ address.ReverseGeocoder = (*BigDataCloud)(nil)

// BigDataCloud reverse-geocodes positions with the BigDataCloud API.
type BigDataCloud struct {
	client  Doer
	baseURL string
}

// NewBigDataCloud returns a reverse geocoder calling baseURL.
func NewBigDataCloud(client Doer, baseURL string) *BigDataCloud {
	if baseURL == "" {
		baseURL = DefaultReverseGeocodeURL
	}
	return &BigDataCloud{client: client, baseURL: baseURL}
}

// Lookup implements address.ReverseGeocoder. Every failure is returned as
// *address.GeocodingServiceError.
func (b *BigDataCloud) Lookup(ctx context.Context, pos address.Position) (*address.Place, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(pos.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(pos.Longitude, 'f', -1, 64))

	body, err := getJSON(ctx, b.client, b.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, &address.GeocodingServiceError{Err: errors.Wrap(err, "reverse geocode")}
	}

	place, err := decodePlace(body)
	if err != nil {
		return nil, &address.GeocodingServiceError{Err: errors.Wrap(err, "decode reverse geocode")}
	}
	return place, nil
}

// decodePlace reads the four place fields, skipping everything else. JSON
// null counts as absent.
func decodePlace(data []byte) (*address.Place, error) {
	var p address.Place
	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var dst *address.OptString
		switch string(key) {
		case "locality":
			dst = &p.Locality
		case "city":
			dst = &p.City
		case "postcode":
			dst = &p.Postcode
		case "countryName":
			dst = &p.CountryName
		default:
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		v, err := d.Str()
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		*dst = address.NewOptString(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

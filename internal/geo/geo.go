// Package geo implements address.Geolocator and address.ReverseGeocoder on
// top of public HTTP services and browser-reported positions.
package geo

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
)

// maxBody bounds upstream response bodies.
const maxBody = 1 << 20

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// getJSON performs a GET and returns the body of a 2xx response.
func getJSON(ctx context.Context, client Doer, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

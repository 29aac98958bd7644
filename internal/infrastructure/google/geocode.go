package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"LocalNewsMapper/internal/ports"
)

// DefaultGeocodeURL is the Geocoding API JSON endpoint.
const DefaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// ErrNoLocation is returned for a payload without a usable first result.
var ErrNoLocation = errors.New("no location in geocode payload")

// Location is the part of a geocoding result kept on a site.
type Location struct {
	Address string
	ZipCode string
	Lat     float64
	Lng     float64
}

// GeocodeClient resolves locales into geocoding payloads.
type GeocodeClient struct {
	api *apiClient
}

var _ ports.Geocoder = (*GeocodeClient)(nil)

// NewGeocodeClient builds a rate-limited geocoding client.
func NewGeocodeClient(opts Options, logger *slog.Logger) *GeocodeClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGeocodeURL
	}
	return &GeocodeClient{api: newAPIClient(opts, logger)}
}

// Geocode returns the raw JSON answer for locale.
func (c *GeocodeClient) Geocode(ctx context.Context, locale string) ([]byte, error) {
	body, err := c.api.get(ctx, map[string]string{"address": locale}, nil)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", locale, err)
	}
	return body, nil
}

type geocodePayload struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// ParseLocation reads the first result of a geocoding payload. The payload must
// report status OK; a missing postal code leaves ZipCode empty.
func ParseLocation(payload []byte) (Location, error) {
	var parsed geocodePayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrNoLocation, err)
	}
	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return Location{}, fmt.Errorf("%w: status %q with %d results", ErrNoLocation, parsed.Status, len(parsed.Results))
	}

	first := parsed.Results[0]
	loc := Location{
		Address: first.FormattedAddress,
		Lat:     first.Geometry.Location.Lat,
		Lng:     first.Geometry.Location.Lng,
	}
	for _, part := range first.AddressComponents {
		if slices.Contains(part.Types, "postal_code") {
			loc.ZipCode = part.LongName
			break
		}
	}
	return loc, nil
}

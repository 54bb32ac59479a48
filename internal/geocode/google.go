package geocode

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"
)

// GoogleResolver resolves queries via the Google Geocoding API. Used when a
// Google API key is configured; higher quality than Nominatim for informal
// settlement names in the study regions.
type GoogleResolver struct{}

// NewGoogleResolver sets the package-level API key used by the geocoder
// library and returns a resolver.
func NewGoogleResolver(apiKey string) *GoogleResolver {
	geocoder.ApiKey = apiKey
	return &GoogleResolver{}
}

// Search implements Resolver. The Google API returns a single best match.
func (r *GoogleResolver) Search(_ context.Context, query string) ([]Result, error) {
	loc, err := geocoder.Geocoding(geocoder.Address{Street: query})
	if err != nil {
		return nil, fmt.Errorf("google geocoding: %w", err)
	}

	return []Result{{
		Name:        query,
		DisplayName: query,
		Lat:         loc.Latitude,
		Lon:         loc.Longitude,
		Type:        "location",
	}}, nil
}

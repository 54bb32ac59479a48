package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// userAgent identifies the service per the Nominatim usage policy.
const userAgent = "climate-extraction/1.0"

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errCircuitOpen = errors.New("circuit breaker open")
)

// BackoffConfig controls exponential backoff for geocoding requests.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NominatimClient resolves queries against the OpenStreetMap Nominatim API.
// No API key is required; requests are throttled by the upstream, so the
// client wraps calls in backoff plus a circuit breaker.
type NominatimClient struct {
	baseURL      string
	countryCodes string
	httpClient   *http.Client
	backoff      BackoffConfig
	circuit      *gobreaker.CircuitBreaker
}

// NewNominatimClient creates a NominatimClient. countryCodes optionally
// restricts results (e.g. "za"); empty means worldwide.
func NewNominatimClient(httpClient *http.Client, countryCodes string) *NominatimClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nominatim",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &NominatimClient{
		baseURL:      nominatimBaseURL,
		countryCodes: countryCodes,
		httpClient:   httpClient,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit: cb,
	}
}

// Search implements Resolver.
func (c *NominatimClient) Search(ctx context.Context, query string) ([]Result, error) {
	resp, err := c.doWithResilience(ctx, func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("format", "json")
		values.Set("limit", "5")
		values.Set("addressdetails", "1")
		if c.countryCodes != "" {
			values.Set("countrycodes", c.countryCodes)
		}

		req, err := http.NewRequest(http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload []struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		Type        string `json:"type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}

	results := make([]Result, 0, len(payload))
	for _, item := range payload {
		lat, errLat := strconv.ParseFloat(item.Lat, 64)
		lon, errLon := strconv.ParseFloat(item.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		results = append(results, Result{
			Name:        item.Name,
			DisplayName: item.DisplayName,
			Lat:         lat,
			Lon:         lon,
			Type:        item.Type,
		})
	}
	return results, nil
}

// doWithResilience executes the request with retries, exponential backoff,
// and a circuit breaker. Rate limits and 5xx responses are retryable; an
// open circuit fails fast.
func (c *NominatimClient) doWithResilience(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.httpClient.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

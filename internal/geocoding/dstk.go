package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/usermap/internal/models"
	"golang.org/x/time/rate"
)

// DSTKProvider implements the Provider interface against a Data Science
// Toolkit style API: Google-compatible forward geocoding under
// /maps/api/geocode/json and reverse lookups under coordinates2politics.
// The base URL is configurable so the bot can point at a self-hosted instance.
type DSTKProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL of the DSTK instance
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// dstkGeocodeResponse is the Google-shaped forward geocoding response.
type dstkGeocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// dstkPoliticsResponse is one element of the coordinates2politics response.
// The politics list is ordered from the least to the most specific boundary.
type dstkPoliticsResponse struct {
	Politics []struct {
		Name string `json:"name"`
	} `json:"politics"`
}

// NewDSTKProvider creates a DSTK provider for the given base URL.
func NewDSTKProvider(baseURL string, rateLimit int, log *slog.Logger) *DSTKProvider {
	const timeout = 10

	return &DSTKProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: baseURL,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewDSTKProviderWithClient allows injecting a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewDSTKProviderWithClient(
	client HTTPClient,
	baseURL string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *DSTKProvider {
	return &DSTKProvider{
		client:  client,
		baseURL: baseURL,
		log:     log,
		limiter: limiter,
	}
}

// Geocode converts an address to geographic coordinates using the forward
// geocoding endpoint. An empty results list maps to ErrNoResults.
func (dp *DSTKProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	dp.log.DebugContext(ctx, "Geocoding using DSTK", "address", address)

	reqURL, err := url.Parse(dp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	reqURL = reqURL.JoinPath("maps", "api", "geocode", "json")

	query := reqURL.Query()
	query.Set("address", address)
	reqURL.RawQuery = query.Encode()

	body, err := dp.get(ctx, reqURL.String())
	if err != nil {
		return nil, err
	}

	var response dstkGeocodeResponse
	if err = json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if len(response.Results) == 0 {
		return nil, ErrNoResults
	}
	location := response.Results[0].Geometry.Location

	dp.log.DebugContext(ctx, "DSTK found result", "lat", location.Lat, "lng", location.Lng)

	return &models.Coordinates{Latitude: location.Lat, Longitude: location.Lng}, nil
}

// ReverseGeocode resolves the most specific political boundary name containing
// the point. An empty result list yields an empty name, not an error.
func (dp *DSTKProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	dp.log.DebugContext(ctx, "Reverse geocoding using DSTK", "lat", lat, "lng", lng)

	reqURL, err := url.Parse(dp.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	pair := strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
	reqURL = reqURL.JoinPath("coordinates2politics", pair)

	body, err := dp.get(ctx, reqURL.String())
	if err != nil {
		return "", err
	}

	var response []dstkPoliticsResponse
	if err = json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to decode politics response: %w", err)
	}

	if len(response) == 0 || len(response[0].Politics) == 0 {
		return "", nil
	}
	politics := response[0].Politics

	// Last entry is the most specific boundary.
	return politics[len(politics)-1].Name, nil
}

// get performs a rate-limited GET request and returns the response body.
func (dp *DSTKProvider) get(ctx context.Context, rawURL string) ([]byte, error) {
	if dp.limiter != nil {
		if err := dp.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := dp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		dp.log.ErrorContext(ctx, "DSTK API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("dstk API returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

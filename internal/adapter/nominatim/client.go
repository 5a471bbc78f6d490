// Package nominatim implements domain.Geocoder against the OpenStreetMap
// Nominatim API. Outbound calls are throttled to the provider's usage
// policy; callers are expected to put a persistent cache in front (see the
// geocache package) so the throttle only bites on genuinely new lookups.
package nominatim

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

	"golang.org/x/time/rate"

	"github.com/enterate/incident-etl/internal/domain"
)

// Client calls the Nominatim /search and /reverse endpoints.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a Nominatim client. minInterval is the spacing enforced
// between outbound requests (the public instance requires at least one
// second). userAgent identifies this pipeline per the usage policy.
func New(baseURL, userAgent string, timeout, minInterval time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
		logger:     logger,
	}
}

// forwardResult is one /search hit. Nominatim encodes coordinates as strings.
type forwardResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// reverseResponse is the /reverse payload, reduced to the address fields the
// pipeline reads.
type reverseResponse struct {
	Address struct {
		Road        string `json:"road"`
		Pedestrian  string `json:"pedestrian"`
		Footway     string `json:"footway"`
		Path        string `json:"path"`
		Residential string `json:"residential"`
		Cycleway    string `json:"cycleway"`
		HouseNumber string `json:"house_number"`
	} `json:"address"`
}

// ForwardGeocode resolves address text to coordinates via /search.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (domain.Coordinates, bool, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}

	body, err := c.get(ctx, c.baseURL+"/search?"+params.Encode(), "forward")
	if err != nil {
		return domain.Coordinates{}, false, err
	}

	var results []forwardResult
	if err := json.Unmarshal(body, &results); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("decode forward response: %w", err)
	}
	if len(results) == 0 {
		return domain.Coordinates{}, false, nil
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.Coordinates{}, false, fmt.Errorf("malformed coordinates %q,%q", results[0].Lat, results[0].Lon)
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, true, nil
}

// ReverseGeocode resolves coordinates to a street and house number via
// /reverse. The most specific road-type field available wins; the street
// name and number are normalized before being returned (and therefore
// before being cached by any decorator).
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Address, bool, error) {
	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format": {"jsonv2"},
	}

	body, err := c.get(ctx, c.baseURL+"/reverse?"+params.Encode(), "reverse")
	if err != nil {
		return domain.Address{}, false, err
	}

	var resp reverseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Address{}, false, fmt.Errorf("decode reverse response: %w", err)
	}

	a := resp.Address
	street := firstNonEmpty(a.Road, a.Pedestrian, a.Footway, a.Path, a.Residential, a.Cycleway)
	if street == "" {
		return domain.Address{}, false, nil
	}
	return domain.Address{
		Street: domain.NormalizeReverseStreet(street),
		Number: domain.CleanNumber(a.HouseNumber),
	}, true, nil
}

// get performs one throttled request and returns the response body.
func (c *Client) get(ctx context.Context, fullURL, direction string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s geocode throttle: %w", direction, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s geocode request: %w", direction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nominatim %s: status %d: %s", direction, resp.StatusCode, snippet)
	}
	return io.ReadAll(resp.Body)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

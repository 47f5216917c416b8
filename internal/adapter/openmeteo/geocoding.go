package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/couchcryptid/weather-verify-service/internal/observability"
)

// DefaultGeocodingURL is the Open-Meteo place search endpoint.
const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

// GeocodingClient implements domain.Geocoder using the Open-Meteo Geocoding API.
type GeocodingClient struct {
	up *upstream
}

// NewGeocodingClient creates an Open-Meteo geocoding client.
func NewGeocodingClient(s Settings, metrics *observability.Metrics, logger *slog.Logger) *GeocodingClient {
	if s.BaseURL == "" {
		s.BaseURL = DefaultGeocodingURL
	}
	return &GeocodingClient{up: newUpstream("geocoding", s, metrics, logger)}
}

// Resolve returns the best match for placeName. An empty result set is
// domain.ErrLocationNotFound.
func (c *GeocodingClient) Resolve(ctx context.Context, placeName string) (domain.ResolvedLocation, error) {
	params := url.Values{
		"name":     {placeName},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	}

	r, err := c.up.get(ctx, c.up.baseURL+"?"+params.Encode())
	if err != nil {
		return domain.ResolvedLocation{}, err
	}
	if r.status != http.StatusOK {
		return domain.ResolvedLocation{}, c.up.fail("geocoding API error: status %d: %s", r.status, r.body)
	}

	var geoResp geocodingResponse
	if err := json.Unmarshal(r.body, &geoResp); err != nil {
		return domain.ResolvedLocation{}, c.up.fail("decode response: %v", err)
	}

	if len(geoResp.Results) == 0 {
		c.up.metrics.UpstreamRequests.WithLabelValues(c.up.name, "empty").Inc()
		return domain.ResolvedLocation{}, fmt.Errorf("%w: %q", domain.ErrLocationNotFound, placeName)
	}

	g := geoResp.Results[0]
	if g.Latitude == nil || g.Longitude == nil || strings.TrimSpace(g.Name) == "" {
		return domain.ResolvedLocation{}, c.up.fail("result missing name or coordinates")
	}
	if *g.Latitude < -90 || *g.Latitude > 90 || *g.Longitude < -180 || *g.Longitude > 180 {
		return domain.ResolvedLocation{}, c.up.fail("coordinates out of range: %f,%f", *g.Latitude, *g.Longitude)
	}

	c.up.metrics.UpstreamRequests.WithLabelValues(c.up.name, "success").Inc()
	return domain.ResolvedLocation{
		Latitude:    *g.Latitude,
		Longitude:   *g.Longitude,
		Name:        g.Name,
		DisplayName: displayName(g),
	}, nil
}

// CheckReadiness reports an error while the geocoding breaker is open.
func (c *GeocodingClient) CheckReadiness(ctx context.Context) error {
	return c.up.CheckReadiness(ctx)
}

// displayName joins name, region and country, skipping absent parts.
func displayName(g geocodingResult) string {
	parts := []string{g.Name}
	for _, p := range []string{g.Admin1, g.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Open-Meteo geocoding response types.

type geocodingResponse struct {
	Results []geocodingResult `json:"results"`
}

type geocodingResult struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Name      string   `json:"name"`
	Admin1    string   `json:"admin1"`
	Country   string   `json:"country"`
}

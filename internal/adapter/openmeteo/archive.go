package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/couchcryptid/weather-verify-service/internal/observability"
)

// DefaultArchiveURL is the Open-Meteo historical weather endpoint.
const DefaultArchiveURL = "https://archive-api.open-meteo.com/v1/archive"

const (
	dailyFields     = "precipitation_sum,precipitation_hours,windspeed_10m_max,temperature_2m_max,temperature_2m_min"
	defaultTimezone = "UTC"
)

// ArchiveClient implements domain.ArchiveFetcher using the Open-Meteo Archive API.
type ArchiveClient struct {
	up *upstream
}

// NewArchiveClient creates an Open-Meteo archive client.
func NewArchiveClient(s Settings, metrics *observability.Metrics, logger *slog.Logger) *ArchiveClient {
	if s.BaseURL == "" {
		s.BaseURL = DefaultArchiveURL
	}
	return &ArchiveClient{up: newUpstream("archive", s, metrics, logger)}
}

// Fetch returns the daily aggregates for date at loc, in the location's own
// timezone. A date the archive does not cover, or a day with missing values,
// is domain.ErrDataUnavailable.
func (c *ArchiveClient) Fetch(ctx context.Context, loc domain.ResolvedLocation, date domain.IncidentDate) (domain.WeatherMetrics, error) {
	day := date.String()
	params := url.Values{
		"latitude":   {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
		"start_date": {day},
		"end_date":   {day},
		"daily":      {dailyFields},
		"timezone":   {"auto"},
	}

	r, err := c.up.get(ctx, c.up.baseURL+"?"+params.Encode())
	if err != nil {
		return domain.WeatherMetrics{}, err
	}

	var archResp archiveResponse
	decodeErr := json.Unmarshal(r.body, &archResp)

	switch {
	case r.status == http.StatusBadRequest && decodeErr == nil && archResp.Error && archResp.Reason != "":
		// The archive rejects dates outside its coverage with a reason.
		c.up.metrics.UpstreamRequests.WithLabelValues(c.up.name, "empty").Inc()
		return domain.WeatherMetrics{}, fmt.Errorf("%w: %s", domain.ErrDataUnavailable, archResp.Reason)
	case r.status != http.StatusOK:
		return domain.WeatherMetrics{}, c.up.fail("archive API error: status %d: %s", r.status, r.body)
	case decodeErr != nil:
		return domain.WeatherMetrics{}, c.up.fail("decode response: %v", decodeErr)
	}

	metrics, err := archResp.metricsFor(day)
	if err != nil {
		c.up.metrics.UpstreamRequests.WithLabelValues(c.up.name, "empty").Inc()
		return domain.WeatherMetrics{}, err
	}

	c.up.metrics.UpstreamRequests.WithLabelValues(c.up.name, "success").Inc()
	return metrics, nil
}

// CheckReadiness reports an error while the archive breaker is open.
func (c *ArchiveClient) CheckReadiness(ctx context.Context) error {
	return c.up.CheckReadiness(ctx)
}

// Open-Meteo archive response types.

type archiveResponse struct {
	Timezone string        `json:"timezone"`
	Daily    *archiveDaily `json:"daily"`
	Error    bool          `json:"error"`
	Reason   string        `json:"reason"`
}

type archiveDaily struct {
	Time               []string   `json:"time"`
	PrecipitationSum   []*float64 `json:"precipitation_sum"`
	PrecipitationHours []*float64 `json:"precipitation_hours"`
	WindSpeedMax       []*float64 `json:"windspeed_10m_max"`
	TemperatureMax     []*float64 `json:"temperature_2m_max"`
	TemperatureMin     []*float64 `json:"temperature_2m_min"`
}

func (a archiveResponse) metricsFor(day string) (domain.WeatherMetrics, error) {
	d := a.Daily
	if d == nil {
		return domain.WeatherMetrics{}, fmt.Errorf("%w: no daily block", domain.ErrDataUnavailable)
	}
	if len(d.Time) == 0 || d.Time[0] != day {
		return domain.WeatherMetrics{}, fmt.Errorf("%w: no entry for %s", domain.ErrDataUnavailable, day)
	}

	var m domain.WeatherMetrics
	fields := []struct {
		name   string
		values []*float64
		dst    *float64
	}{
		{"precipitation_sum", d.PrecipitationSum, &m.PrecipitationSumMm},
		{"precipitation_hours", d.PrecipitationHours, &m.PrecipitationHours},
		{"windspeed_10m_max", d.WindSpeedMax, &m.WindSpeedMaxKmh},
		{"temperature_2m_max", d.TemperatureMax, &m.TemperatureMaxC},
		{"temperature_2m_min", d.TemperatureMin, &m.TemperatureMinC},
	}
	for _, f := range fields {
		if len(f.values) == 0 || f.values[0] == nil {
			return domain.WeatherMetrics{}, fmt.Errorf("%w: %s missing for %s", domain.ErrDataUnavailable, f.name, day)
		}
		*f.dst = *f.values[0]
	}

	m.Timezone = a.Timezone
	if m.Timezone == "" {
		m.Timezone = defaultTimezone
	}
	return m, nil
}

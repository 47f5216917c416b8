//go:build openmeteo

package openmeteo

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/couchcryptid/weather-verify-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Open-Meteo APIs.
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func smokeSettings() Settings {
	return Settings{Timeout: 10 * time.Second}
}

func TestSmoke_Resolve(t *testing.T) {
	c := NewGeocodingClient(smokeSettings(), observability.NewMetricsForTesting(), discardLogger())

	loc, err := c.Resolve(context.Background(), "London")
	require.NoError(t, err)

	assert.InDelta(t, 51.5, loc.Latitude, 0.1, "lat should be near London")
	assert.InDelta(t, -0.12, loc.Longitude, 0.1, "lon should be near London")
	assert.Contains(t, loc.DisplayName, "United Kingdom")
}

func TestSmoke_Resolve_Unknown(t *testing.T) {
	c := NewGeocodingClient(smokeSettings(), observability.NewMetricsForTesting(), discardLogger())

	_, err := c.Resolve(context.Background(), "Xyzzyqwv Nonexistent")
	require.ErrorIs(t, err, domain.ErrLocationNotFound)
}

func TestSmoke_Fetch(t *testing.T) {
	c := NewArchiveClient(smokeSettings(), observability.NewMetricsForTesting(), discardLogger())

	m, err := c.Fetch(context.Background(), london, mayDay)
	require.NoError(t, err)

	assert.Equal(t, "Europe/London", m.Timezone)
	assert.GreaterOrEqual(t, m.PrecipitationSumMm, 0.0)
	assert.GreaterOrEqual(t, m.TemperatureMaxC, m.TemperatureMinC)
}

func TestSmoke_Fetch_BeforeCoverage(t *testing.T) {
	c := NewArchiveClient(smokeSettings(), observability.NewMetricsForTesting(), discardLogger())

	_, err := c.Fetch(context.Background(), london, domain.IncidentDate{Year: 1900, Month: time.January, Day: 1})
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

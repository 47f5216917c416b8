package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/couchcryptid/weather-verify-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	london = domain.ResolvedLocation{
		Latitude:    51.50853,
		Longitude:   -0.12574,
		Name:        "London",
		DisplayName: "London, England, United Kingdom",
	}
	mayDay = domain.IncidentDate{Year: 2024, Month: time.May, Day: 1}
)

const londonArchiveBody = `{
	"latitude": 51.5, "longitude": -0.12, "timezone": "Europe/London",
	"daily_units": {"precipitation_sum": "mm"},
	"daily": {
		"time": ["2024-05-01"],
		"precipitation_sum": [12.4],
		"precipitation_hours": [6.0],
		"windspeed_10m_max": [31.7],
		"temperature_2m_max": [14.3],
		"temperature_2m_min": [8.0]
	}
}`

func testArchive(t *testing.T, h http.Handler) *ArchiveClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewArchiveClient(testSettings(srv.URL), observability.NewMetricsForTesting(), discardLogger())
}

func TestArchiveClient_Fetch_Success(t *testing.T) {
	c := testArchive(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "51.50853", q.Get("latitude"))
		assert.Equal(t, "-0.12574", q.Get("longitude"))
		assert.Equal(t, "2024-05-01", q.Get("start_date"))
		assert.Equal(t, "2024-05-01", q.Get("end_date"))
		assert.Equal(t, dailyFields, q.Get("daily"))
		assert.Equal(t, "auto", q.Get("timezone"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(londonArchiveBody))
	}))

	m, err := c.Fetch(context.Background(), london, mayDay)
	require.NoError(t, err)

	assert.Equal(t, domain.WeatherMetrics{
		PrecipitationSumMm: 12.4,
		PrecipitationHours: 6.0,
		WindSpeedMaxKmh:    31.7,
		TemperatureMaxC:    14.3,
		TemperatureMinC:    8.0,
		Timezone:           "Europe/London",
	}, m)
}

func TestArchiveClient_Fetch_DefaultTimezone(t *testing.T) {
	c := testArchive(t, jsonHandler(t, http.StatusOK, `{"daily":{"time":["2024-05-01"],
		"precipitation_sum":[0],"precipitation_hours":[0],"windspeed_10m_max":[10],
		"temperature_2m_max":[40.1],"temperature_2m_min":[27.5]}}`))

	m, err := c.Fetch(context.Background(), london, mayDay)
	require.NoError(t, err)
	assert.Equal(t, "UTC", m.Timezone)
	assert.Zero(t, m.PrecipitationSumMm)
}

func TestArchiveClient_Fetch_DataUnavailable(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"no daily block": jsonHandler(t, http.StatusOK, `{"timezone":"GMT"}`),
		"empty arrays": jsonHandler(t, http.StatusOK, `{"daily":{"time":[],"precipitation_sum":[],
			"precipitation_hours":[],"windspeed_10m_max":[],"temperature_2m_max":[],"temperature_2m_min":[]}}`),
		"null precipitation": jsonHandler(t, http.StatusOK, `{"daily":{"time":["2024-05-01"],
			"precipitation_sum":[null],"precipitation_hours":[1],"windspeed_10m_max":[1],
			"temperature_2m_max":[1],"temperature_2m_min":[1]}}`),
		"missing key": jsonHandler(t, http.StatusOK, `{"daily":{"time":["2024-05-01"],
			"precipitation_sum":[1],"windspeed_10m_max":[1],"temperature_2m_max":[1],"temperature_2m_min":[1]}}`),
		"wrong day": jsonHandler(t, http.StatusOK, `{"daily":{"time":["2024-04-30"],
			"precipitation_sum":[1],"precipitation_hours":[1],"windspeed_10m_max":[1],
			"temperature_2m_max":[1],"temperature_2m_min":[1]}}`),
		"no time series": jsonHandler(t, http.StatusOK, `{"daily":{
			"precipitation_sum":[1],"precipitation_hours":[1],"windspeed_10m_max":[1],
			"temperature_2m_max":[1],"temperature_2m_min":[1]}}`),
		"out of range date": jsonHandler(t, http.StatusBadRequest,
			`{"error":true,"reason":"Parameter 'start_date' is out of allowed range from 1940-01-01 to 2024-06-14"}`),
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			c := testArchive(t, h)

			_, err := c.Fetch(context.Background(), london, mayDay)
			require.ErrorIs(t, err, domain.ErrDataUnavailable)
		})
	}
}

func TestArchiveClient_Fetch_RejectionReasonIsKept(t *testing.T) {
	c := testArchive(t, jsonHandler(t, http.StatusBadRequest, `{"error":true,"reason":"out of allowed range"}`))

	_, err := c.Fetch(context.Background(), london, mayDay)
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "out of allowed range")
}

func TestArchiveClient_Fetch_ServiceFailures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error":        jsonHandler(t, http.StatusBadGateway, `bad gateway`),
		"rate limited":        jsonHandler(t, http.StatusTooManyRequests, `{"error":true,"reason":"slow down"}`),
		"bad request no body": jsonHandler(t, http.StatusBadRequest, `<html>bad</html>`),
		"forbidden":           jsonHandler(t, http.StatusForbidden, `{"error":true,"reason":"denied"}`),
		"malformed json":      jsonHandler(t, http.StatusOK, `{"daily":`),
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			c := testArchive(t, h)

			_, err := c.Fetch(context.Background(), london, mayDay)
			require.ErrorIs(t, err, domain.ErrServiceUnavailable)
		})
	}
}

func TestArchiveClient_Fetch_CancelledInFlight(t *testing.T) {
	started := make(chan struct{})
	c := testArchive(t, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Fetch(ctx, london, mayDay)
	require.ErrorIs(t, err, domain.ErrCancelled)
	require.NoError(t, c.CheckReadiness(context.Background()))
}

func TestArchiveClient_Fetch_RateLimited(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, londonArchiveBody))
	defer srv.Close()

	c := NewArchiveClient(Settings{BaseURL: srv.URL, Timeout: 5 * time.Second, RatePerSec: 0.001},
		observability.NewMetricsForTesting(), discardLogger())

	_, err := c.Fetch(context.Background(), london, mayDay)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Fetch(ctx, london, mayDay)
	require.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestArchiveClient_Fetch_LimiterWaitBoundedByTimeout(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, londonArchiveBody))
	defer srv.Close()

	c := NewArchiveClient(Settings{BaseURL: srv.URL, Timeout: 100 * time.Millisecond, RatePerSec: 0.5},
		observability.NewMetricsForTesting(), discardLogger())

	_, err := c.Fetch(context.Background(), london, mayDay)
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Fetch(context.Background(), london, mayDay)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Less(t, elapsed, time.Second)
	require.NoError(t, c.CheckReadiness(context.Background()))
}

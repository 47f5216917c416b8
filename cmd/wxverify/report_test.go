package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOpenMeteo(t *testing.T) {
	t.Helper()
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("name") != "Phoenix" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"name":"Phoenix","latitude":33.44838,"longitude":-112.07404,
			"admin1":"Arizona","country":"United States"}]}`))
	}))
	t.Cleanup(geo.Close)

	archive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"timezone":"America/Phoenix","daily":{"time":["` + r.URL.Query().Get("start_date") + `"],
			"precipitation_sum":[0.0],"precipitation_hours":[0.0],"windspeed_10m_max":[18.2],
			"temperature_2m_max":[40.1],"temperature_2m_min":[27.5]}}`))
	}))
	t.Cleanup(archive.Close)

	t.Setenv("GEOCODING_URL", geo.URL)
	t.Setenv("ARCHIVE_URL", archive.URL)

	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestReportCmd_Text(t *testing.T) {
	fakeOpenMeteo(t)

	out, _, err := execute(t, "report", "--place", "Phoenix", "--date", "2024-06-01")
	require.NoError(t, err)

	assert.Contains(t, out, "Phoenix, Arizona, United States")
	assert.Contains(t, out, "33.4484°N, 112.0740°W")
	assert.Contains(t, out, "VERDICT: MINOR/NO RAIN")
	assert.Contains(t, out, "June 01, 2024 (Saturday)")
}

func TestReportCmd_JSONToDirectory(t *testing.T) {
	fakeOpenMeteo(t)
	dir := t.TempDir()

	out, errOut, err := execute(t, "report", "--place", "Phoenix", "--date", "2024-06-01", "--format", "json", "--out", dir)
	require.NoError(t, err)

	assert.Empty(t, out)
	want := filepath.Join(dir, "WeatherVerify_Report_Phoenix_20240601.json")
	assert.Contains(t, errOut, want)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"MINOR_OR_NONE"`)
}

func TestReportCmd_Failures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown place", []string{"report", "--place", "Atlantis", "--date", "2024-05-01"}, "location_not_found"},
		{"future date", []string{"report", "--place", "Phoenix", "--date", "2030-01-01"}, "invalid_input"},
		{"malformed date", []string{"report", "--place", "Phoenix", "--date", "yesterday"}, "YYYY-MM-DD"},
		{"bad format", []string{"report", "--place", "Phoenix", "--date", "2024-05-01", "--format", "pdf"}, "unsupported format"},
		{"missing place", []string{"report", "--date", "2024-05-01"}, "place"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeOpenMeteo(t)

			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

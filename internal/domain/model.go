package domain

import (
	"fmt"
	"time"
)

const isoDate = "2006-01-02"

// ResolvedLocation is the single best geocoding match for a place query.
type ResolvedLocation struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"` // name[, region][, country]
}

// IncidentDate is a calendar day with no time of day or zone attached.
type IncidentDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) IncidentDate {
	y, m, d := t.Date()
	return IncidentDate{Year: y, Month: m, Day: d}
}

// ParseIncidentDate parses an ISO YYYY-MM-DD date. Malformed input wraps
// ErrInvalidInput.
func ParseIncidentDate(s string) (IncidentDate, error) {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return IncidentDate{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date.
func (d IncidentDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as YYYY-MM-DD, the form the archive API expects.
func (d IncidentDate) String() string {
	return d.Time().Format(isoDate)
}

// Before reports whether d is an earlier calendar day than o.
func (d IncidentDate) Before(o IncidentDate) bool {
	return d.Time().Before(o.Time())
}

// AddDays returns the date n days after d (n may be negative).
func (d IncidentDate) AddDays(n int) IncidentDate {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d IncidentDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *IncidentDate) UnmarshalText(b []byte) error {
	parsed, err := ParseIncidentDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// WeatherMetrics holds one day's archived values for a location. No field is
// averaged or interpolated.
type WeatherMetrics struct {
	PrecipitationSumMm float64 `json:"precipitation_sum_mm"`
	PrecipitationHours float64 `json:"precipitation_hours"`
	WindSpeedMaxKmh    float64 `json:"wind_speed_max_kmh"`
	TemperatureMaxC    float64 `json:"temperature_max_c"`
	TemperatureMinC    float64 `json:"temperature_min_c"`
	Timezone           string  `json:"timezone"`
}

// VerdictClass is the two-state rainfall classification.
type VerdictClass string

const (
	SignificantRain VerdictClass = "SIGNIFICANT_RAIN"
	MinorOrNone     VerdictClass = "MINOR_OR_NONE"
)

// Verdict is the classification of a day's precipitation sum.
type Verdict struct {
	Class           VerdictClass `json:"class"`
	Explanation     string       `json:"explanation"`
	ThresholdMm     float64      `json:"threshold_mm"`
	PrecipitationMm float64      `json:"precipitation_mm"`
}

// Significant reports whether the verdict is SIGNIFICANT_RAIN.
func (v Verdict) Significant() bool {
	return v.Class == SignificantRain
}

// Access is the caller's entitlement to the report document.
type Access string

const (
	AccessPreview Access = "preview"
	AccessFull    Access = "full"
)

// Valid reports whether a is a known access level.
func (a Access) Valid() bool {
	return a == AccessPreview || a == AccessFull
}

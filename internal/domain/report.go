package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

const (
	reportTitle   = "OFFICIAL WEATHER VERIFICATION REPORT"
	reportPurpose = "Insurance Claim / Event Refund / Work Dispute"
	dataSource    = "Open-Meteo Weather Archive (open-meteo.com)"
	disclaimer    = "Historical weather data is sourced from meteorological archives and weather models. " +
		"This report should be used as supporting evidence and may need to be corroborated with " +
		"official meteorological station records for legal proceedings."
)

// Report is the terminal aggregate of one successful verification. It is
// self-contained: a renderer needs no further lookups.
type Report struct {
	ID          string           `json:"id"`
	Location    ResolvedLocation `json:"location"`
	Date        IncidentDate     `json:"date"`
	Metrics     WeatherMetrics   `json:"metrics"`
	Verdict     Verdict          `json:"verdict"`
	GeneratedAt time.Time        `json:"generated_at"`
	Access      Access           `json:"access"`
	Display     Display          `json:"display"`
}

// Display holds every pre-formatted string a document renderer shows.
type Display struct {
	Title           string      `json:"title"`
	GeneratedAt     string      `json:"generated_at"`
	Location        string      `json:"location"`
	Coordinates     string      `json:"coordinates"`
	Latitude        string      `json:"latitude"`
	Longitude       string      `json:"longitude"`
	Timezone        string      `json:"timezone"`
	IncidentDate    string      `json:"incident_date"`
	Purpose         string      `json:"purpose"`
	Metrics         []MetricRow `json:"metrics"`
	VerdictHeadline string      `json:"verdict_headline"`
	VerdictText     string      `json:"verdict_text"`
	DataSource      string      `json:"data_source"`
	Disclaimer      string      `json:"disclaimer"`
	FileName        string      `json:"file_name"`
}

// MetricRow is one line of the weather conditions table.
type MetricRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Assemble composes the stage outputs into a Report and applies all display
// formatting. It performs no I/O and is deterministic for identical inputs.
func Assemble(loc ResolvedLocation, date IncidentDate, metrics WeatherMetrics, verdict Verdict, generatedAt time.Time) Report {
	return Report{
		ID:          reportID(loc, date),
		Location:    loc,
		Date:        date,
		Metrics:     metrics,
		Verdict:     verdict,
		GeneratedAt: generatedAt,
		Access:      AccessFull,
		Display: Display{
			Title:        reportTitle,
			GeneratedAt:  generatedAt.Format("January 02, 2006 at 15:04"),
			Location:     loc.DisplayName,
			Coordinates:  FormatCoordinates(loc.Latitude, loc.Longitude),
			Latitude:     formatDecimal(loc.Latitude),
			Longitude:    formatDecimal(loc.Longitude),
			Timezone:     metrics.Timezone,
			IncidentDate: date.Time().Format("January 02, 2006 (Monday)"),
			Purpose:      reportPurpose,
			Metrics: []MetricRow{
				{Label: "Total Precipitation", Value: fmt.Sprintf("%.2f", metrics.PrecipitationSumMm), Unit: "mm"},
				{Label: "Precipitation Hours", Value: fmt.Sprintf("%.1f", metrics.PrecipitationHours), Unit: "hours"},
				{Label: "Maximum Temperature", Value: fmt.Sprintf("%.1f", metrics.TemperatureMaxC), Unit: "°C"},
				{Label: "Minimum Temperature", Value: fmt.Sprintf("%.1f", metrics.TemperatureMinC), Unit: "°C"},
				{Label: "Maximum Wind Speed", Value: fmt.Sprintf("%.1f", metrics.WindSpeedMaxKmh), Unit: "km/h"},
			},
			VerdictHeadline: verdict.Headline(),
			VerdictText:     verdict.Explanation,
			DataSource:      dataSource,
			Disclaimer:      disclaimer,
			FileName:        fileName(loc.Name, date),
		},
	}
}

// WithAccess returns a copy of r stamped with the caller's entitlement.
func (r Report) WithAccess(a Access) Report {
	r.Access = a
	return r
}

// Full reports whether the caller may receive the complete document.
func (r Report) Full() bool {
	return r.Access == AccessFull
}

// Preview is the free view of a report: the findings without the document.
type Preview struct {
	ID              string      `json:"id"`
	Location        string      `json:"location"`
	IncidentDate    string      `json:"incident_date"`
	Metrics         []MetricRow `json:"metrics"`
	Verdict         Verdict     `json:"verdict"`
	VerdictHeadline string      `json:"verdict_headline"`
	Access          Access      `json:"access"`
}

// Preview returns the subset of r shown to callers without full access.
func (r Report) Preview() Preview {
	return Preview{
		ID:              r.ID,
		Location:        r.Display.Location,
		IncidentDate:    r.Display.IncidentDate,
		Metrics:         r.Display.Metrics,
		Verdict:         r.Verdict,
		VerdictHeadline: r.Display.VerdictHeadline,
		Access:          r.Access,
	}
}

// FormatCoordinates renders a coordinate pair to 4 dp with hemisphere
// letters, e.g. "51.5085°N, 0.1257°W".
func FormatCoordinates(lat, lon float64) string {
	return formatAxis(lat, "N", "S") + ", " + formatAxis(lon, "E", "W")
}

func formatAxis(v float64, pos, neg string) string {
	rounded := roundCoordinate(v)
	hemi := pos
	if rounded < 0 {
		hemi = neg
	}
	return fmt.Sprintf("%.4f°%s", math.Abs(rounded), hemi)
}

// formatDecimal renders a signed coordinate to 4 dp without a negative zero.
func formatDecimal(v float64) string {
	return fmt.Sprintf("%.4f", roundCoordinate(v))
}

func roundCoordinate(v float64) float64 {
	rounded := math.Round(v*1e4) / 1e4
	if rounded == 0 {
		return 0
	}
	return rounded
}

// reportID is a deterministic hash of the verified place and day, so the same
// verification always yields the same identifier.
func reportID(loc ResolvedLocation, date IncidentDate) string {
	input := fmt.Sprintf("%s|%.4f|%.4f|%s", loc.DisplayName, loc.Latitude, loc.Longitude, date)
	hash := sha256.Sum256([]byte(input))
	return "wv-" + hex.EncodeToString(hash[:8])
}

// fileName suggests a download name such as WeatherVerify_Report_New_York_20240501.
func fileName(place string, date IncidentDate) string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return '_'
	}, strings.TrimSpace(place))
	if safe == "" {
		safe = "Location"
	}
	return fmt.Sprintf("WeatherVerify_Report_%s_%s", safe, date.Time().Format("20060102"))
}

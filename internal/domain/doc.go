// Package domain models a single weather verification: where, when, what the
// archive recorded, and whether it counts as significant rainfall.
//
// # Flow
//
//	place name + date → ValidateRequest → Geocoder → ResolvedLocation
//	  → ArchiveFetcher → WeatherMetrics → Classify → Verdict
//	  → Assemble → Report
//
// Every value is built once and never mutated afterwards. Nothing here is
// shared across requests.
//
// # Data Source
//
// Coordinates come from the Open-Meteo geocoding API and daily observations
// from the Open-Meteo historical archive (https://open-meteo.com). Archive
// values are requested with timezone=auto, so a "day" is the civil day at the
// resolved coordinates, not a UTC day.
//
// # Verdict Policy
//
// A day is SIGNIFICANT_RAIN when the daily precipitation sum is strictly
// greater than 5.0 mm; everything else, including exactly 5.0 mm, negative or
// NaN values, is MINOR_OR_NONE. The threshold is fixed and not configurable.
//
// # Display Formatting
//
// All rounding and phrasing happens in [Assemble] so renderers never re-derive
// it:
//
//	precipitation sum     2 dp, mm
//	precipitation hours   1 dp, hours
//	temperatures          1 dp, °C
//	wind speed            1 dp, km/h
//	coordinates           4 dp with hemisphere letters
//	incident date         "January 02, 2006 (Monday)"
//
// # Failure Taxonomy
//
// Failures are tagged with a [FailureKind] derived from sentinel errors:
// invalid_input and location_not_found are user-correctable;
// service_unavailable is transient and safe to retry later by re-running the
// whole verification; data_unavailable means the archive has no coverage for
// the requested day and place; cancelled means the caller gave up.
package domain

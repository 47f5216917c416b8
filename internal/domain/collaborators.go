package domain

import "context"

// Geocoder resolves a free-text place name to its best single match.
type Geocoder interface {
	// Resolve returns ErrLocationNotFound when the service has no candidate
	// and ErrServiceUnavailable for transport, status or payload faults.
	Resolve(ctx context.Context, placeName string) (ResolvedLocation, error)
}

// ArchiveFetcher retrieves one day of archived weather for a location.
type ArchiveFetcher interface {
	// Fetch returns ErrDataUnavailable when the archive has no coverage for
	// the day and ErrServiceUnavailable for transport or payload faults.
	Fetch(ctx context.Context, loc ResolvedLocation, date IncidentDate) (WeatherMetrics, error)
}

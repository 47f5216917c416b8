package domain

import (
	"context"
	"errors"
)

// Sentinel errors. Adapters and the pipeline wrap these so callers can branch
// with errors.Is regardless of the detail attached.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrLocationNotFound   = errors.New("location not found")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrDataUnavailable    = errors.New("weather data unavailable for this date/location")
	ErrCancelled          = errors.New("cancelled")
)

// FailureKind is the stable tag a caller displays or maps to a status code.
type FailureKind string

const (
	KindNone               FailureKind = ""
	KindInvalidInput       FailureKind = "invalid_input"
	KindLocationNotFound   FailureKind = "location_not_found"
	KindServiceUnavailable FailureKind = "service_unavailable"
	KindDataUnavailable    FailureKind = "data_unavailable"
	KindCancelled          FailureKind = "cancelled"
)

// KindOf classifies err. Errors that match no sentinel are treated as
// service failures.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrLocationNotFound):
		return KindLocationNotFound
	case errors.Is(err, ErrDataUnavailable):
		return KindDataUnavailable
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	default:
		return KindServiceUnavailable
	}
}

// UserCorrectable reports whether the end user can fix the failure by
// changing their input.
func (k FailureKind) UserCorrectable() bool {
	return k == KindInvalidInput || k == KindLocationNotFound
}

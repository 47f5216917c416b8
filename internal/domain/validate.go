package domain

import (
	"fmt"
	"strings"
)

// DefaultHistoryDays is the archive coverage window the service accepts:
// roughly ten years back from today.
const DefaultHistoryDays = 365 * 10

// NormalizePlace trims surrounding whitespace and rejects empty place names.
func NormalizePlace(place string) (string, error) {
	trimmed := strings.TrimSpace(place)
	if trimmed == "" {
		return "", fmt.Errorf("%w: please enter a place name", ErrInvalidInput)
	}
	return trimmed, nil
}

// ValidateDate checks that date is strictly before today and, when
// historyDays > 0, no older than historyDays before today.
func ValidateDate(date, today IncidentDate, historyDays int) error {
	if !date.Before(today) {
		return fmt.Errorf("%w: the incident date %s must be in the past", ErrInvalidInput, date)
	}
	if historyDays > 0 {
		oldest := today.AddDays(-historyDays)
		if date.Before(oldest) {
			return fmt.Errorf("%w: the incident date %s is older than the supported history (earliest %s)",
				ErrInvalidInput, date, oldest)
		}
	}
	return nil
}

package staffing

import "strings"

// ValidateTransition validates a booking status change.
func ValidateTransition(from, to BookingStatus) error {
	valid := false
	switch from {
	case BookingDraft:
		valid = to == BookingSearch
	case BookingSearch:
		switch to {
		case BookingAccepted, BookingExpired, BookingDraft:
			valid = true
		}
	case BookingAccepted:
		// back to search when requirements change under a bound seat
		valid = to == BookingSearch || to == BookingDeclined
	case BookingDeclined, BookingExpired:
		valid = to == BookingSearch
	}
	if !valid {
		return ErrInvalidTransition
	}
	return nil
}

// ValidateRequirements validates the requirement fields of a seat.
func ValidateRequirements(profileID string, seniority Seniority) error {
	if strings.TrimSpace(profileID) == "" {
		return ErrInvalidInput
	}
	if !seniority.Valid() {
		return ErrInvalidInput
	}
	return nil
}

package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when a booking does not exist or belongs to another clinic.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrIllegalTransition is returned when the transition table forbids a status change.
	ErrIllegalTransition = errors.New("illegal booking status transition")

	// ErrRecordExists is returned when a booking already has a medical record.
	ErrRecordExists = errors.New("medical record already filed for booking")
)

package users

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrClinicAccountNotFound is returned when no active clinic account has the username.
	ErrClinicAccountNotFound = errors.New("clinic account not found")
)

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var (
	// ErrPasswordMismatch is returned when a password does not match its hash.
	ErrPasswordMismatch = errors.New("auth: password mismatch")
	// ErrPasswordTooLong is returned when a password exceeds MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("auth: password too long")
)

// PasswordTooLong reports whether bcrypt would refuse password.
func PasswordTooLong(password string) bool {
	return len(password) > MaxPasswordBytes
}

// HashPassword bcrypt-hashes a password. Users and clinic accounts share it.
func HashPassword(password string) (string, error) {
	if PasswordTooLong(password) {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password against a bcrypt hash. A password no hash
// could have been made from is a mismatch.
func CheckPassword(hash, password string) error {
	if PasswordTooLong(password) {
		return ErrPasswordMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: compare password: %w", err)
	}
	return nil
}

// dummyHash is compared against when an account does not exist so the
// response time does not reveal which usernames are registered.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("wellbot-dummy-password"), bcrypt.DefaultCost)

// BurnCompare performs a throwaway bcrypt comparison.
func BurnCompare(password string) {
	if PasswordTooLong(password) {
		password = password[:MaxPasswordBytes]
	}
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

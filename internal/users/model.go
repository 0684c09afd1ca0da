package users

import "time"

// User is an end user of the mobile app.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ClinicAccount is a staff login bound to one partner clinic.
type ClinicAccount struct {
	ID           int64
	ClinicID     int64
	ClinicName   string
	Username     string
	PasswordHash string
	IsActive     bool
}

// ClinicProfile is returned to clinic staff on login.
type ClinicProfile struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// SignupRequest is the body of POST /signup. The mobile client sends the
// display name as "username".
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ClinicLoginRequest is the body of POST /clinic/login.
type ClinicLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

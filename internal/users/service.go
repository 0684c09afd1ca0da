// Package users handles end-user and clinic-staff accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wellbot/wellbot-api/internal/apperr"
	"github.com/wellbot/wellbot-api/internal/auth"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

const (
	msgAllFieldsRequired    = "All fields are required"
	msgUserExists           = "User already exists"
	msgCredentialsRequired  = "Email and password are required"
	msgInvalidCredentials   = "Invalid credentials"
	msgClinicFieldsRequired = "Username and password are required"
	msgInvalidClinicLogin   = "invalid username or password"
	msgPasswordTooLong      = "Password is too long"
)

// maxFieldRunes is the width of the users name and email columns.
const maxFieldRunes = 255

// TokenIssuer mints tokens for both principal kinds.
type TokenIssuer interface {
	IssueUser(userID int64) (string, error)
	IssueClinic(account auth.ClinicAccount) (string, error)
}

// Service implements signup and login for users and clinic staff.
type Service struct {
	store  *Store
	tokens TokenIssuer
	logger *logging.Logger
}

// NewService constructs an account service.
func NewService(store *Store, tokens TokenIssuer, logger *logging.Logger) *Service {
	if store == nil {
		panic("users: store required")
	}
	if tokens == nil {
		panic("users: token issuer required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, tokens: tokens, logger: logger}
}

// Signup registers a user and returns a user token for the new id.
func (s *Service) Signup(ctx context.Context, name, email, password string) (string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return "", apperr.Validation("fields", msgAllFieldsRequired)
	}
	if utf8.RuneCountInString(name) > maxFieldRunes {
		return "", apperr.Validation("username", "Name is too long")
	}
	if utf8.RuneCountInString(email) > maxFieldRunes {
		return "", apperr.Validation("email", "Email is too long")
	}
	if auth.PasswordTooLong(password) {
		return "", apperr.Validation("password", msgPasswordTooLong)
	}

	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperr.Validation("email", msgUserExists)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	id, err := s.store.CreateUser(ctx, name, email, hash)
	if errors.Is(err, ErrEmailTaken) {
		// Lost a race with a concurrent signup for the same email.
		return "", apperr.Validation("email", msgUserExists)
	}
	if err != nil {
		return "", err
	}

	token, err := s.tokens.IssueUser(id)
	if err != nil {
		return "", fmt.Errorf("users: issue token: %w", err)
	}
	s.logger.Info("user registered", "user_id", id)
	return token, nil
}

// Login verifies email and password and returns a user token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", apperr.Validation("fields", msgCredentialsRequired)
	}

	user, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		auth.BurnCompare(password)
		return "", apperr.Unauthorized(msgInvalidCredentials, err)
	}
	if err != nil {
		return "", err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return "", apperr.Unauthorized(msgInvalidCredentials, err)
	}

	token, err := s.tokens.IssueUser(user.ID)
	if err != nil {
		return "", fmt.Errorf("users: issue token: %w", err)
	}
	return token, nil
}

// ClinicLogin authenticates clinic staff. Unknown, inactive and wrong-password
// accounts all fail with the same message.
func (s *Service) ClinicLogin(ctx context.Context, username, password string) (string, ClinicProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ClinicProfile{}, apperr.Validation("fields", msgClinicFieldsRequired)
	}

	account, err := s.store.GetActiveClinicAccount(ctx, username)
	if errors.Is(err, ErrClinicAccountNotFound) {
		auth.BurnCompare(password)
		return "", ClinicProfile{}, apperr.Unauthorized(msgInvalidClinicLogin, err)
	}
	if err != nil {
		return "", ClinicProfile{}, err
	}
	if err := auth.CheckPassword(account.PasswordHash, password); err != nil {
		return "", ClinicProfile{}, apperr.Unauthorized(msgInvalidClinicLogin, err)
	}

	token, err := s.tokens.IssueClinic(auth.ClinicAccount{
		ClinicID:   account.ClinicID,
		ClinicName: account.ClinicName,
		Username:   account.Username,
	})
	if err != nil {
		return "", ClinicProfile{}, fmt.Errorf("users: issue clinic token: %w", err)
	}
	s.logger.Info("clinic login", "clinic_id", account.ClinicID, "username", account.Username)
	return token, ClinicProfile{ID: account.ClinicID, Name: account.ClinicName, Username: account.Username}, nil
}

// DisplayName returns the user's name, or "" when unknown.
func (s *Service) DisplayName(ctx context.Context, userID int64) (string, error) {
	name, err := s.store.GetName(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return "", nil
	}
	return name, err
}

package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wellbot/wellbot-api/internal/database"
)

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists users and clinic accounts in MySQL.
type Store struct {
	db queryer
}

// NewStore creates a MySQL-backed account store.
func NewStore(db queryer) *Store {
	if db == nil {
		panic("users: db required")
	}
	return &Store{db: db}
}

// CreateUser inserts a user and returns its id. A registered email yields ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`,
		name, email, passwordHash)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("users: insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("users: last insert id: %w", err)
	}
	return id, nil
}

// GetByEmail loads a user by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users: get by email: %w", err)
	}
	return &u, nil
}

// EmailExists reports whether email is registered.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("users: email exists: %w", err)
	}
	return exists, nil
}

// GetName returns the display name of a user.
func (s *Store) GetName(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("users: get name: %w", err)
	}
	return name, nil
}

// GetActiveClinicAccount loads an active clinic account by username.
func (s *Store) GetActiveClinicAccount(ctx context.Context, username string) (*ClinicAccount, error) {
	var a ClinicAccount
	err := s.db.QueryRowContext(ctx,
		`SELECT id, clinic_id, clinic_name, username, password_hash, is_active
		FROM clinic_accounts WHERE username = ? AND is_active = TRUE`, username).
		Scan(&a.ID, &a.ClinicID, &a.ClinicName, &a.Username, &a.PasswordHash, &a.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClinicAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users: get clinic account: %w", err)
	}
	return &a, nil
}

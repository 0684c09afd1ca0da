// Package auth issues and verifies the two WellBot credential domains.
//
// End-user tokens and clinic-staff tokens are signed with different secrets,
// carry different audiences and decode into different Go types, so one can
// never stand in for the other.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	userAudience   = "wellbot-user"
	clinicAudience = "wellbot-clinic"
	issuer         = "wellbot-api"
)

var (
	// ErrMissingToken is returned when no credential was presented.
	ErrMissingToken = errors.New("auth: missing token")
	// ErrInvalidToken covers malformed, expired, wrongly signed and wrong-domain tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// UserClaims is the payload of an end-user token.
type UserClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// ClinicClaims is the payload of a clinic-staff token.
type ClinicClaims struct {
	ClinicID   int64  `json:"clinicId"`
	ClinicName string `json:"clinicName"`
	Username   string `json:"username"`
	jwt.RegisteredClaims
}

// UserIdentity is an authenticated end user.
type UserIdentity struct {
	UserID int64
}

// ClinicIdentity is an authenticated clinic staff account.
type ClinicIdentity struct {
	ClinicID   int64
	ClinicName string
	Username   string
}

// ClinicAccount is the subset of a clinic account needed to mint a token.
type ClinicAccount struct {
	ClinicID   int64
	ClinicName string
	Username   string
}

// TokenConfig configures both signing domains.
type TokenConfig struct {
	UserSecret   string
	ClinicSecret string
	// UserTTL of zero issues user tokens without expiry.
	UserTTL   time.Duration
	ClinicTTL time.Duration
}

// Tokens issues and verifies tokens for both domains.
type Tokens struct {
	userSecret   []byte
	clinicSecret []byte
	userTTL      time.Duration
	clinicTTL    time.Duration
	now          func() time.Time
}

// NewTokens validates cfg and returns a Tokens.
func NewTokens(cfg TokenConfig) (*Tokens, error) {
	if strings.TrimSpace(cfg.UserSecret) == "" || strings.TrimSpace(cfg.ClinicSecret) == "" {
		return nil, errors.New("auth: both user and clinic secrets are required")
	}
	if cfg.UserSecret == cfg.ClinicSecret {
		return nil, errors.New("auth: user and clinic secrets must differ")
	}
	return &Tokens{
		userSecret:   []byte(cfg.UserSecret),
		clinicSecret: []byte(cfg.ClinicSecret),
		userTTL:      cfg.UserTTL,
		clinicTTL:    cfg.ClinicTTL,
		now:          time.Now,
	}, nil
}

// IssueUser signs a user token for userID.
func (t *Tokens) IssueUser(userID int64) (string, error) {
	now := t.now()
	claims := UserClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  strconv.FormatInt(userID, 10),
			Audience: jwt.ClaimStrings{userAudience},
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.userTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.userTTL))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.userSecret)
	if err != nil {
		return "", fmt.Errorf("auth: sign user token: %w", err)
	}
	return signed, nil
}

// IssueClinic signs a clinic token that expires after the clinic TTL.
func (t *Tokens) IssueClinic(account ClinicAccount) (string, error) {
	now := t.now()
	claims := ClinicClaims{
		ClinicID:   account.ClinicID,
		ClinicName: account.ClinicName,
		Username:   account.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   account.Username,
			Audience:  jwt.ClaimStrings{clinicAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.clinicTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.clinicSecret)
	if err != nil {
		return "", fmt.Errorf("auth: sign clinic token: %w", err)
	}
	return signed, nil
}

// AuthenticateUser verifies a user-domain token.
func (t *Tokens) AuthenticateUser(raw string) (UserIdentity, error) {
	tokenString := normalize(raw)
	if tokenString == "" {
		return UserIdentity{}, ErrMissingToken
	}
	claims := UserClaims{}
	if err := t.parse(tokenString, &claims, t.userSecret, userAudience); err != nil {
		return UserIdentity{}, err
	}
	if claims.UserID <= 0 {
		return UserIdentity{}, ErrInvalidToken
	}
	return UserIdentity{UserID: claims.UserID}, nil
}

// AuthenticateClinic verifies a clinic-domain token.
func (t *Tokens) AuthenticateClinic(raw string) (ClinicIdentity, error) {
	tokenString := normalize(raw)
	if tokenString == "" {
		return ClinicIdentity{}, ErrMissingToken
	}
	claims := ClinicClaims{}
	if err := t.parse(tokenString, &claims, t.clinicSecret, clinicAudience); err != nil {
		return ClinicIdentity{}, err
	}
	if claims.ClinicID <= 0 {
		return ClinicIdentity{}, ErrInvalidToken
	}
	return ClinicIdentity{
		ClinicID:   claims.ClinicID,
		ClinicName: claims.ClinicName,
		Username:   claims.Username,
	}, nil
}

func (t *Tokens) parse(tokenString string, claims jwt.Claims, secret []byte, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	},
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

// normalize accepts the raw header value the mobile client sends and
// tolerates a "Bearer " prefix.
func normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/wellbot/wellbot-api/internal/auth"
	"github.com/wellbot/wellbot-api/internal/http/respond"
	"github.com/wellbot/wellbot-api/internal/tenancy"
)

type contextKey string

const userIdentityKey contextKey = "userIdentity"

const (
	msgTokenRequired = "token required"
	msgTokenInvalid  = "invalid or expired token"
)

// UserAuthenticator verifies end-user tokens.
type UserAuthenticator interface {
	AuthenticateUser(raw string) (auth.UserIdentity, error)
}

// ClinicAuthenticator verifies clinic-staff tokens.
type ClinicAuthenticator interface {
	AuthenticateClinic(raw string) (auth.ClinicIdentity, error)
}

// RequireUser rejects requests without a valid user token.
func RequireUser(verifier UserAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.AuthenticateUser(r.Header.Get("Authorization"))
			if err != nil {
				respond.Fail(w, http.StatusUnauthorized, authMessage(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), identity)))
		})
	}
}

// OptionalUser attaches the user identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalUser(verifier UserAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, err := verifier.AuthenticateUser(r.Header.Get("Authorization")); err == nil {
				r = r.WithContext(WithUser(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireClinic rejects requests without a valid clinic token and scopes the
// request to the clinic tenant.
func RequireClinic(verifier ClinicAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.AuthenticateClinic(r.Header.Get("Authorization"))
			if err != nil {
				respond.Fail(w, http.StatusUnauthorized, authMessage(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClinic(r.Context(), identity)))
		})
	}
}

// WithUser stores a user identity in context.
func WithUser(ctx context.Context, identity auth.UserIdentity) context.Context {
	return context.WithValue(ctx, userIdentityKey, identity)
}

// WithClinic scopes ctx to the clinic tenant. Clinic handlers read it back
// with tenancy.ClinicIDFromContext.
func WithClinic(ctx context.Context, identity auth.ClinicIdentity) context.Context {
	return tenancy.WithClinicID(ctx, identity.ClinicID)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (auth.UserIdentity, bool) {
	identity, ok := ctx.Value(userIdentityKey).(auth.UserIdentity)
	return identity, ok
}

func authMessage(err error) string {
	if errors.Is(err, auth.ErrMissingToken) {
		return msgTokenRequired
	}
	return msgTokenInvalid
}

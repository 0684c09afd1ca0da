package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wellbot/wellbot-api/internal/auth"
	"github.com/wellbot/wellbot-api/internal/tenancy"
)

func testTokens(t *testing.T) *auth.Tokens {
	t.Helper()
	tokens, err := auth.NewTokens(auth.TokenConfig{
		UserSecret:   "user-secret",
		ClinicSecret: "clinic-secret",
		ClinicTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	return tokens
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	msg, _ := body["error"].(string)
	return msg
}

func TestRequireUserMissingHeader(t *testing.T) {
	mw := RequireUser(testTokens(t))
	req := httptest.NewRequest(http.MethodGet, "/user-bookings", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if got := decodeError(t, rec); got != msgTokenRequired {
		t.Fatalf("expected %q, got %q", msgTokenRequired, got)
	}
}

func TestRequireUserRejectsClinicToken(t *testing.T) {
	tokens := testTokens(t)
	clinicToken, err := tokens.IssueClinic(auth.ClinicAccount{ClinicID: 1, Username: "c1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/user-bookings", nil)
	req.Header.Set("Authorization", clinicToken)
	rec := httptest.NewRecorder()

	RequireUser(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if got := decodeError(t, rec); got != msgTokenInvalid {
		t.Fatalf("expected %q, got %q", msgTokenInvalid, got)
	}
}

func TestRequireUserValidToken(t *testing.T) {
	tokens := testTokens(t)
	userToken, err := tokens.IssueUser(9)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/user-bookings", nil)
	req.Header.Set("Authorization", userToken)
	rec := httptest.NewRecorder()

	called := false
	RequireUser(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		identity, ok := UserFromContext(r.Context())
		if !ok || identity.UserID != 9 {
			t.Fatalf("expected user 9 in context, got %+v ok=%v", identity, ok)
		}
		if _, ok := tenancy.ClinicIDFromContext(r.Context()); ok {
			t.Fatal("user request must not carry a clinic tenant")
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected handler to run with 200, got called=%v code=%d", called, rec.Code)
	}
}

func TestOptionalUserPassesAnonymousAndInvalid(t *testing.T) {
	tokens := testTokens(t)
	for _, header := range []string{"", "garbage"} {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		called := false
		OptionalUser(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			if _, ok := UserFromContext(r.Context()); ok {
				t.Fatalf("expected anonymous request for header %q", header)
			}
		})).ServeHTTP(rec, req)
		if !called {
			t.Fatalf("expected handler to run for header %q", header)
		}
	}
}

func TestRequireClinicSetsTenant(t *testing.T) {
	tokens := testTokens(t)
	clinicToken, err := tokens.IssueClinic(auth.ClinicAccount{ClinicID: 2, ClinicName: "Two", Username: "c2"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/clinic/stats", nil)
	req.Header.Set("Authorization", clinicToken)
	rec := httptest.NewRecorder()

	RequireClinic(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
		if !ok || clinicID != 2 {
			t.Fatalf("expected tenant 2, got %d ok=%v", clinicID, ok)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireClinicRejectsUserToken(t *testing.T) {
	tokens := testTokens(t)
	userToken, err := tokens.IssueUser(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/clinic/stats", nil)
	req.Header.Set("Authorization", userToken)
	rec := httptest.NewRecorder()

	RequireClinic(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

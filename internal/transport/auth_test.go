package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/staffing"
)

var marie = Principal{
	UserID:      "user-marie",
	CandidateID: "cand-marie",
	ProfileID:   "backend",
	Seniority:   staffing.SenioritySenior,
	Roles:       []string{"candidate"},
}

func newAuth(t *testing.T) *JWTAuth {
	t.Helper()
	auth, err := NewJWTAuth("test-secret", "teamdash")
	require.NoError(t, err)
	return auth
}

func issue(t *testing.T, auth *JWTAuth, p Principal) string {
	t.Helper()
	token, err := auth.Issue(p, time.Hour)
	require.NoError(t, err)
	return token
}

func TestJWTAuth_RoundTrip(t *testing.T) {
	auth := newAuth(t)

	got, err := auth.Authenticate(issue(t, auth, marie))
	require.NoError(t, err)

	want := marie
	want.Source = "jwt"
	require.Equal(t, want, got)
	require.Equal(t, staffing.Identity{CandidateID: "cand-marie", ProfileID: "backend", Seniority: staffing.SenioritySenior}, got.Identity())
}

func TestJWTAuth_Rejects(t *testing.T) {
	auth := newAuth(t)
	other, err := NewJWTAuth("other-secret", "teamdash")
	require.NoError(t, err)

	expired := newAuth(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	badSeniority := marie
	badSeniority.Seniority = "principal"

	cases := map[string]string{
		"wrong secret":  issue(t, other, marie),
		"expired":       issue(t, expired, marie),
		"no subject":    issue(t, auth, Principal{CandidateID: "cand-x"}),
		"bad seniority": issue(t, auth, badSeniority),
		"garbage":       "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Authenticate(token)
			require.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestNewJWTAuth_RequiresSecret(t *testing.T) {
	_, err := NewJWTAuth("  ", "")
	require.Error(t, err)
}

func TestJWTAuth_ResolveUser(t *testing.T) {
	auth := newAuth(t)
	userID, err := auth.ResolveUser(context.Background(), issue(t, auth, marie))
	require.NoError(t, err)
	require.Equal(t, "user-marie", userID)
}

func TestAuthMiddleware(t *testing.T) {
	auth := newAuth(t)
	token := issue(t, auth, marie)

	handler := AuthMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "cand-marie", p.CandidateID)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Websocket upgrades may carry the token in the query.
	req = httptest.NewRequest(http.MethodGet, "/ws?access_token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	auth := newAuth(t)
	handler := AuthMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"", "Bearer nope", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/feed", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, header)
		require.Contains(t, rec.Body.String(), `"code"`)
	}

	// Query tokens are only honoured on websocket upgrades.
	req := httptest.NewRequest(http.MethodGet, "/v1/feed?access_token="+issue(t, auth, marie), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_HealthIsPublic(t *testing.T) {
	handler := AuthMiddleware(newAuth(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLocalMiddleware(t *testing.T) {
	handler := LocalMiddleware(Principal{UserID: "dev"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "local", p.Source)
		require.False(t, p.IsCandidate())
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

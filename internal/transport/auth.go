package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/teamdash/teamdash/internal/domain/staffing"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Principal is the authenticated caller. Candidate fields are empty for
// users who are not on the marketplace, such as project owners.
type Principal struct {
	UserID      string             `json:"user_id"`
	CandidateID string             `json:"candidate_id,omitempty"`
	ProfileID   string             `json:"profile_id,omitempty"`
	Seniority   staffing.Seniority `json:"seniority,omitempty"`
	Roles       []string           `json:"roles,omitempty"`
	Source      string             `json:"source"`
}

// Identity is the candidate identity used for eligibility.
func (p Principal) Identity() staffing.Identity {
	return staffing.Identity{CandidateID: p.CandidateID, ProfileID: p.ProfileID, Seniority: p.Seniority}
}

// IsCandidate reports whether the principal can see a staffing feed.
func (p Principal) IsCandidate() bool {
	return p.CandidateID != ""
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller, if authenticated.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != ""
}

// Claims are the JWT claims TeamDash issues. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	CandidateID string   `json:"candidate_id,omitempty"`
	ProfileID   string   `json:"profile_id,omitempty"`
	Seniority   string   `json:"seniority,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

// JWTAuth signs and verifies HS256 bearer tokens.
type JWTAuth struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTAuth creates an authenticator. An empty secret is an error: it would
// accept tokens anyone can forge.
func NewJWTAuth(secret, issuer string) (*JWTAuth, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret not configured")
	}
	return &JWTAuth{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for p valid for ttl.
func (a *JWTAuth) Issue(p Principal, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		CandidateID: p.CandidateID,
		ProfileID:   p.ProfileID,
		Seniority:   string(p.Seniority),
		Roles:       p.Roles,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// Authenticate verifies token and returns its principal.
func (a *JWTAuth) Authenticate(token string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &Claims{}
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: subject claim required", ErrUnauthorized)
	}
	seniority := staffing.Seniority(claims.Seniority)
	if seniority != "" && !seniority.Valid() {
		return Principal{}, fmt.Errorf("%w: unknown seniority %q", ErrUnauthorized, claims.Seniority)
	}
	return Principal{
		UserID:      claims.Subject,
		CandidateID: claims.CandidateID,
		ProfileID:   claims.ProfileID,
		Seniority:   seniority,
		Roles:       claims.Roles,
		Source:      "jwt",
	}, nil
}

// ResolveUser implements the MCP server's resolver.
func (a *JWTAuth) ResolveUser(_ context.Context, token string) (string, error) {
	p, err := a.Authenticate(token)
	if err != nil {
		return "", err
	}
	return p.UserID, nil
}

func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	// Browsers cannot set headers on websocket upgrades.
	if websocketUpgrade(r) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// AuthMiddleware enforces bearer token authentication on every path except
// the health check.
func AuthMiddleware(auth *JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			token := bearerToken(r)
			if token == "" {
				writeAPIError(w, newAPIError(http.StatusUnauthorized, "unauthorized", "missing bearer token", nil))
				return
			}
			principal, err := auth.Authenticate(token)
			if err != nil {
				writeAPIError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid bearer token", nil))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// LocalMiddleware injects a fixed principal when auth is disabled.
func LocalMiddleware(p Principal) func(http.Handler) http.Handler {
	if p.Source == "" {
		p.Source = "local"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

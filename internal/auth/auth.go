// Package auth identifies the current user from a Supabase access token.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/davidbz/cthai/internal/domain"
	"github.com/davidbz/cthai/internal/observability"
)

// Config contains token verification settings.
type Config struct {
	JWTSecret string `env:"SUPABASE_JWT_SECRET"`
	Audience  string `env:"SUPABASE_JWT_AUDIENCE" envDefault:"authenticated"`
	Issuer    string `env:"SUPABASE_JWT_ISSUER"`
}

// Claims encodes the Supabase access token claims this service reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`

	jwt.RegisteredClaims
}

// User is the authenticated caller.
type User struct {
	ID    string
	Email string
}

type contextKey struct{}

// Verifier validates HS256 access tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a verifier for tokens signed with the project secret.
func NewVerifier(config Config) (*Verifier, error) {
	if config.JWTSecret == "" {
		return nil, errors.New("JWT secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}

	return &Verifier{
		secret: []byte(config.JWTSecret),
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify parses the token and returns its user.
func (v *Verifier) Verify(token string) (*User, error) {
	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrAuthRequired)
	}

	return &User{ID: claims.Subject, Email: claims.Email}, nil
}

// WithUser stores the user in ctx.
func WithUser(ctx context.Context, user *User) context.Context {
	ctx = context.WithValue(ctx, contextKey{}, user)
	return observability.WithUserID(ctx, user.ID)
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(ctx context.Context) *User {
	user, _ := ctx.Value(contextKey{}).(*User)
	return user
}

// RequireUser rejects requests without a valid bearer token.
func RequireUser(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := observability.FromContext(r.Context())

			if verifier == nil {
				logger.Warn("SUPABASE_JWT_SECRET is not configured, rejecting request")
				writeUnauthorized(w)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			user, err := verifier.Verify(token)
			if err != nil {
				logger.Info("rejected access token", observability.Error(err))
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
}

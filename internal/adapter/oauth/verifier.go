package oauth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tanzimsiamm/fiwippo-backend/internal/domain"
)

var (
	// ErrUnsupportedProvider is returned for providers with no registered configuration.
	ErrUnsupportedProvider = errors.New("unsupported identity provider")
	// ErrTokenInvalid is returned when a provider token fails verification.
	ErrTokenInvalid = errors.New("provider token invalid")
)

const clockSkew = 30 * time.Second

// Identity is the verified subject of a provider ID token.
type Identity struct {
	Email   string
	Name    string
	Subject string
}

// TokenVerifier validates provider-issued ID tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, provider, token string) (Identity, error)
}

// ProviderConfig describes where and how a provider's ID tokens are verified.
type ProviderConfig struct {
	Name      string
	Issuers   []string
	JWKSURL   string
	Audiences []string
}

// GoogleProvider returns the Google Sign-In configuration for the given OAuth client ids.
func GoogleProvider(clientIDs []string) ProviderConfig {
	return ProviderConfig{
		Name:      domain.ProviderGoogle,
		Issuers:   []string{"accounts.google.com", "https://accounts.google.com"},
		JWKSURL:   "https://www.googleapis.com/oauth2/v3/certs",
		Audiences: clientIDs,
	}
}

// AppleProvider returns the Sign in with Apple configuration for the given service/bundle ids.
func AppleProvider(clientIDs []string) ProviderConfig {
	return ProviderConfig{
		Name:      domain.ProviderApple,
		Issuers:   []string{"https://appleid.apple.com"},
		JWKSURL:   "https://appleid.apple.com/auth/keys",
		Audiences: clientIDs,
	}
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// IDTokenVerifier verifies OpenID Connect ID tokens against provider JWKS.
type IDTokenVerifier struct {
	providers map[string]ProviderConfig
	keys      KeySource
	now       func() time.Time
}

var _ TokenVerifier = (*IDTokenVerifier)(nil)

// NewIDTokenVerifier builds a verifier for the given providers.
func NewIDTokenVerifier(keys KeySource, providers ...ProviderConfig) *IDTokenVerifier {
	byName := make(map[string]ProviderConfig, len(providers))
	for _, p := range providers {
		byName[strings.ToLower(p.Name)] = p
	}
	return &IDTokenVerifier{providers: byName, keys: keys, now: time.Now}
}

// Verify checks signature, issuer, audience, expiry and email claims of an ID token.
func (v *IDTokenVerifier) Verify(ctx context.Context, provider, token string) (Identity, error) {
	cfg, ok := v.providers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return Identity{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
	if len(cfg.Audiences) == 0 {
		return Identity{}, fmt.Errorf("%w: no client ids configured for %s", ErrTokenInvalid, cfg.Name)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(v.now),
	)

	var claims idTokenClaims
	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		return v.keys.Key(ctx, cfg.JWKSURL, kid)
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !slices.Contains(cfg.Issuers, claims.Issuer) {
		return Identity{}, fmt.Errorf("%w: unexpected issuer %q", ErrTokenInvalid, claims.Issuer)
	}
	if !slices.ContainsFunc(claims.Audience, func(aud string) bool { return slices.Contains(cfg.Audiences, aud) }) {
		return Identity{}, fmt.Errorf("%w: audience mismatch", ErrTokenInvalid)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return Identity{}, fmt.Errorf("%w: email claim missing", ErrTokenInvalid)
	}
	if !emailVerified(claims.EmailVerified) {
		return Identity{}, fmt.Errorf("%w: email not verified by provider", ErrTokenInvalid)
	}

	return Identity{Email: email, Name: strings.TrimSpace(claims.Name), Subject: claims.Subject}, nil
}

// emailVerified accepts Google's boolean and Apple's string encoding. An absent claim counts as verified.
func emailVerified(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	default:
		return false
	}
}

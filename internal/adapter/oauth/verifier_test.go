package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testKID      = "key-1"
	testClientID = "web.apps.googleusercontent.com"
	testIssuer   = "https://accounts.google.com"
)

type jwksFixture struct {
	key    *rsa.PrivateKey
	server *httptest.Server
	hits   atomic.Int32
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &jwksFixture{key: key}
	set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     testKID,
		Algorithm: "RS256",
		Use:       "sig",
	}}}
	body, err := json.Marshal(set)
	require.NoError(t, err)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *jwksFixture) verifier() *IDTokenVerifier {
	google := GoogleProvider([]string{testClientID})
	google.JWKSURL = f.server.URL
	return NewIDTokenVerifier(NewHTTPKeySource(f.server.Client()), google)
}

func (f *jwksFixture) sign(t *testing.T, claims idTokenClaims, kid string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func validClaims() idTokenClaims {
	now := time.Now()
	return idTokenClaims{
		Email:         "Jane@Example.com",
		EmailVerified: true,
		Name:          "Jane Doe",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "1234567890",
			Audience:  jwt.ClaimStrings{testClientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestIDTokenVerifierAcceptsValidToken(t *testing.T) {
	f := newJWKSFixture(t)
	v := f.verifier()

	token := f.sign(t, validClaims(), testKID)
	identity, err := v.Verify(context.Background(), "google", token)
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", identity.Email)
	require.Equal(t, "Jane Doe", identity.Name)
	require.Equal(t, "1234567890", identity.Subject)

	_, err = v.Verify(context.Background(), "google", token)
	require.NoError(t, err)
	require.Equal(t, int32(1), f.hits.Load(), "jwks should be served from cache")
}

func TestIDTokenVerifierAcceptsAppleStringEmailVerified(t *testing.T) {
	f := newJWKSFixture(t)
	claims := validClaims()
	claims.EmailVerified = "true"

	_, err := f.verifier().Verify(context.Background(), "google", f.sign(t, claims, testKID))
	require.NoError(t, err)
}

func TestIDTokenVerifierRejects(t *testing.T) {
	f := newJWKSFixture(t)
	v := f.verifier()

	tests := []struct {
		name   string
		mutate func(c *idTokenClaims)
		kid    string
	}{
		{name: "expired", mutate: func(c *idTokenClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		}},
		{name: "wrong audience", mutate: func(c *idTokenClaims) {
			c.Audience = jwt.ClaimStrings{"someone-else"}
		}},
		{name: "wrong issuer", mutate: func(c *idTokenClaims) {
			c.Issuer = "https://evil.example.com"
		}},
		{name: "missing email", mutate: func(c *idTokenClaims) {
			c.Email = ""
		}},
		{name: "unverified email", mutate: func(c *idTokenClaims) {
			c.EmailVerified = false
		}},
		{name: "unknown kid", kid: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			if tt.mutate != nil {
				tt.mutate(&claims)
			}
			kid := tt.kid
			if kid == "" {
				kid = testKID
			}
			_, err := v.Verify(context.Background(), "google", f.sign(t, claims, kid))
			require.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestIDTokenVerifierRejectsSymmetricToken(t *testing.T) {
	f := newJWKSFixture(t)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	tok.Header["kid"] = testKID
	signed, err := tok.SignedString([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	_, err = f.verifier().Verify(context.Background(), "google", signed)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIDTokenVerifierRejectsMalformedToken(t *testing.T) {
	f := newJWKSFixture(t)
	_, err := f.verifier().Verify(context.Background(), "google", "not-a-jwt")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIDTokenVerifierUnknownProvider(t *testing.T) {
	f := newJWKSFixture(t)
	_, err := f.verifier().Verify(context.Background(), "facebook", f.sign(t, validClaims(), testKID))
	require.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestIDTokenVerifierUnconfiguredProvider(t *testing.T) {
	v := NewIDTokenVerifier(NewHTTPKeySource(nil), AppleProvider(nil))
	_, err := v.Verify(context.Background(), "apple", "irrelevant")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestHTTPKeySourceRefetchesAfterTTL(t *testing.T) {
	f := newJWKSFixture(t)
	src := NewHTTPKeySource(f.server.Client())
	now := time.Now()
	src.now = func() time.Time { return now }

	_, err := src.Key(context.Background(), f.server.URL, testKID)
	require.NoError(t, err)
	_, err = src.Key(context.Background(), f.server.URL, testKID)
	require.NoError(t, err)
	require.Equal(t, int32(1), f.hits.Load())

	now = now.Add(2 * time.Hour)
	_, err = src.Key(context.Background(), f.server.URL, testKID)
	require.NoError(t, err)
	require.Equal(t, int32(2), f.hits.Load())
}

func TestHTTPKeySourceThrottlesUnknownKid(t *testing.T) {
	f := newJWKSFixture(t)
	src := NewHTTPKeySource(f.server.Client())

	_, err := src.Key(context.Background(), f.server.URL, testKID)
	require.NoError(t, err)

	_, err = src.Key(context.Background(), f.server.URL, "rotated")
	require.ErrorIs(t, err, errKeyNotFound)
	require.Equal(t, int32(1), f.hits.Load())
}

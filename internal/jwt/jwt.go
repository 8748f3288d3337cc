package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// minSecretLen is the HS256 key size floor (RFC 7518 section 3.2).
const minSecretLen = 32

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and kind mismatches.
	ErrInvalidToken = errors.New("jwt: invalid token")
	// ErrTokenExpired is returned for a well-formed token whose exp has passed.
	ErrTokenExpired = errors.New("jwt: token expired")
)

// Payload is the identity carried by both token kinds.
type Payload struct {
	UserID         int64
	Email          string
	OrganizationID int64
	Role           string
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Config holds signing secrets and lifetimes. The two secrets must differ.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

type identityClaims struct {
	Type           Kind   `json:"typ"`
	UserID         int64  `json:"user_id,string"`
	Email          string `json:"email"`
	OrganizationID int64  `json:"organization_id,string"`
	Role           string `json:"role"`
}

// Issuer signs and verifies access and refresh tokens with independent HS256 secrets.
type Issuer struct {
	cfg     Config
	access  gojose.Signer
	refresh gojose.Signer
	now     func() time.Time
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer validates cfg and prepares both signers.
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	if len(cfg.AccessSecret) < minSecretLen || len(cfg.RefreshSecret) < minSecretLen {
		return nil, fmt.Errorf("jwt secrets must be at least %d bytes", minSecretLen)
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("jwt access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt token lifetimes must be positive")
	}

	access, err := newSigner(cfg.AccessSecret)
	if err != nil {
		return nil, fmt.Errorf("access signer: %w", err)
	}
	refresh, err := newSigner(cfg.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("refresh signer: %w", err)
	}

	issuer := &Issuer{cfg: cfg, access: access, refresh: refresh, now: time.Now}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer, nil
}

func newSigner(secret []byte) (gojose.Signer, error) {
	return gojose.NewSigner(gojose.SigningKey{Algorithm: gojose.HS256, Key: secret}, (&gojose.SignerOptions{}).WithType("JWT"))
}

// IssuePair signs a fresh access and refresh token for p.
func (i *Issuer) IssuePair(p Payload) (TokenPair, error) {
	now := i.now().UTC()

	access, accessExp, err := i.sign(KindAccess, p, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := i.sign(KindRefresh, p, now)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// AccessTTL exposes the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration {
	return i.cfg.AccessTTL
}

func (i *Issuer) sign(kind Kind, p Payload, now time.Time) (string, time.Time, error) {
	signer, ttl := i.access, i.cfg.AccessTTL
	if kind == KindRefresh {
		signer, ttl = i.refresh, i.cfg.RefreshTTL
	}
	expiry := now.Add(ttl)

	std := gojwt.Claims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(p.UserID, 10),
		Issuer:    i.cfg.Issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(expiry),
	}
	custom := identityClaims{
		Type:           kind,
		UserID:         p.UserID,
		Email:          p.Email,
		OrganizationID: p.OrganizationID,
		Role:           p.Role,
	}

	token, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("serialize %s token: %w", kind, err)
	}
	return token, expiry, nil
}

// Verify checks signature, kind and lifetime of token and returns its payload.
// Failures are ErrTokenExpired or ErrInvalidToken.
func (i *Issuer) Verify(token string, kind Kind) (Payload, error) {
	secret := i.cfg.AccessSecret
	if kind == KindRefresh {
		secret = i.cfg.RefreshSecret
	}

	parsed, err := gojwt.ParseSigned(token, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var std gojwt.Claims
	var custom identityClaims
	if err := parsed.Claims(secret, &std, &custom); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if custom.Type != kind {
		return Payload{}, fmt.Errorf("%w: expected %s token", ErrInvalidToken, kind)
	}

	expected := gojwt.Expected{Issuer: i.cfg.Issuer, Time: i.now()}
	if err := std.ValidateWithLeeway(expected, 0); err != nil {
		if errors.Is(err, gojwt.ErrExpired) {
			return Payload{}, ErrTokenExpired
		}
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return Payload{
		UserID:         custom.UserID,
		Email:          custom.Email,
		OrganizationID: custom.OrganizationID,
		Role:           custom.Role,
	}, nil
}

// VerifySafe is Verify for call sites where authentication is optional.
func (i *Issuer) VerifySafe(token string, kind Kind) (Payload, bool) {
	p, err := i.Verify(token, kind)
	if err != nil {
		return Payload{}, false
	}
	return p, true
}

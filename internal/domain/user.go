package domain

import "time"

// DefaultRole is assigned to every user created by signup or social login.
const DefaultRole = "USER"

// Identity providers a user record may be bound to.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

// OneTimeCode is a pending verification or password reset code.
// Code and expiry are always set or cleared together.
type OneTimeCode struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is past its expiry at now.
func (c OneTimeCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// User represents an end user that can authenticate within an org.
type User struct {
	ID               int64
	OrgID            int64
	Email            string
	Name             string
	PasswordHash     string
	Role             string
	Provider         string
	EmailVerified    bool
	Verification     *OneTimeCode
	PasswordReset    *OneTimeCode
	RefreshTokenHash string
	Location         *string
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Account describes how a user proves their identity.
// It is either a PasswordAccount or a SocialAccount.
type Account interface {
	isAccount()
}

// PasswordAccount is a user with a local password hash.
type PasswordAccount struct {
	Hash string
}

// SocialAccount is a user created through a third-party identity provider.
type SocialAccount struct {
	Provider string
}

func (PasswordAccount) isAccount() {}
func (SocialAccount) isAccount()   {}

// Account returns the user's credential kind.
func (u User) Account() Account {
	if u.PasswordHash != "" {
		return PasswordAccount{Hash: u.PasswordHash}
	}
	return SocialAccount{Provider: u.Provider}
}

// IsProviderBound reports whether the user was registered through a social provider.
func (u User) IsProviderBound() bool {
	return u.Provider != "" && u.Provider != ProviderEmail
}

// UserPatch describes a partial update of a user record. Nil fields are left untouched.
// ExpectedVersion, when non-zero, makes the update conditional on the stored version.
type UserPatch struct {
	Name               *string
	PasswordHash       *string
	EmailVerified      *bool
	Verification       *OneTimeCode
	ClearVerification  bool
	PasswordReset      *OneTimeCode
	ClearPasswordReset bool
	RefreshTokenHash   *string
	Location           *string
	ExpectedVersion    int64
}

// Apply returns a copy of u with the patch applied. Version and timestamps are left to the store.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.EmailVerified != nil {
		u.EmailVerified = *p.EmailVerified
	}
	if p.ClearVerification {
		u.Verification = nil
	} else if p.Verification != nil {
		code := *p.Verification
		u.Verification = &code
	}
	if p.ClearPasswordReset {
		u.PasswordReset = nil
	} else if p.PasswordReset != nil {
		code := *p.PasswordReset
		u.PasswordReset = &code
	}
	if p.RefreshTokenHash != nil {
		u.RefreshTokenHash = *p.RefreshTokenHash
	}
	if p.Location != nil {
		loc := *p.Location
		u.Location = &loc
	}
	return u
}

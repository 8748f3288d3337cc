package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tanzimsiamm/fiwippo-backend/internal/domain"
)

func TestUserAccount(t *testing.T) {
	withPassword := domain.User{PasswordHash: "$argon2id$..."}
	require.Equal(t, domain.PasswordAccount{Hash: "$argon2id$..."}, withPassword.Account())

	social := domain.User{Provider: domain.ProviderGoogle}
	require.Equal(t, domain.SocialAccount{Provider: "google"}, social.Account())
	require.True(t, social.IsProviderBound())
	require.False(t, domain.User{Provider: domain.ProviderEmail}.IsProviderBound())
	require.False(t, domain.User{}.IsProviderBound())
}

func TestOneTimeCodeExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	code := domain.OneTimeCode{Code: "012345", ExpiresAt: now}

	require.False(t, code.Expired(now))
	require.False(t, code.Expired(now.Add(-time.Second)))
	require.True(t, code.Expired(now.Add(time.Nanosecond)))
}

func TestUserPatchApply(t *testing.T) {
	pending := &domain.OneTimeCode{Code: "111111", ExpiresAt: time.Now()}
	user := domain.User{ID: 1, Verification: pending}

	verified := true
	hash := "refresh-hash"
	out := domain.UserPatch{
		EmailVerified:     &verified,
		ClearVerification: true,
		RefreshTokenHash:  &hash,
	}.Apply(user)

	require.True(t, out.EmailVerified)
	require.Nil(t, out.Verification)
	require.Equal(t, "refresh-hash", out.RefreshTokenHash)
	require.NotNil(t, user.Verification, "input must not be mutated")

	reset := domain.OneTimeCode{Code: "222222", ExpiresAt: time.Now()}
	out = domain.UserPatch{PasswordReset: &reset}.Apply(out)
	require.Equal(t, "222222", out.PasswordReset.Code)

	reset.Code = "333333"
	require.Equal(t, "222222", out.PasswordReset.Code, "patch value must be copied")
}

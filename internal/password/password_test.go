package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tanzimsiamm/fiwippo-backend/internal/password"
)

func testHasher() *password.Hasher {
	return password.NewHasher(password.Params{Time: 1, Memory: 1024, Threads: 1})
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := testHasher()
	for _, secret := range []string{"pw123456", "", "ünïcødé-secret", strings.Repeat("x", 512)} {
		hash, err := h.Hash(secret)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

		ok, err := h.Verify(secret, hash)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	h := testHasher()
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	ok, err := h.Verify("battery staple", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	h := testHasher()
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyUsesEncodedParams(t *testing.T) {
	hash, err := testHasher().Hash("secret")
	require.NoError(t, err)

	ok, err := password.NewHasher(password.DefaultParams).Verify("secret", hash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyMalformedHash(t *testing.T) {
	h := testHasher()
	for _, bad := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=0$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
	} {
		ok, err := h.Verify("secret", bad)
		require.Error(t, err, bad)
		require.False(t, ok)
	}
}

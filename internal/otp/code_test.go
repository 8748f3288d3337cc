package otp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tanzimsiamm/fiwippo-backend/internal/otp"
)

func TestGenerateFormat(t *testing.T) {
	gen := otp.NewGenerator()
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, otp.CodeLength)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', code)
		}
		seen[code] = struct{}{}
	}
	require.Greater(t, len(seen), 450)
}

func TestGenerateKeepsLeadingZeros(t *testing.T) {
	gen := otp.NewGenerator()
	for i := 0; i < 20000; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		if code[0] == '0' {
			require.Len(t, code, otp.CodeLength)
			return
		}
	}
	t.Fatal("no code with a leading zero in 20000 draws")
}

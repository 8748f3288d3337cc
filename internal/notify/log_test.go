package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifierWritesCode(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.SendVerificationCode(context.Background(), "a@example.com", "012345"))
	require.NoError(t, n.SendPasswordResetCode(context.Background(), "a@example.com", "654321"))

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "email verification code", entries[0].Message)
	require.Equal(t, "012345", entries[0].ContextMap()["code"])
	require.Equal(t, "password reset code", entries[1].Message)
}

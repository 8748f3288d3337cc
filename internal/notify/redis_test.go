package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newOutboxTest(t *testing.T) (*RedisOutbox, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	outbox := NewRedisOutbox(rdb, "auth:notifications")
	outbox.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return outbox, rdb, mr
}

func TestRedisOutboxEnqueuesMessages(t *testing.T) {
	outbox, rdb, _ := newOutboxTest(t)
	ctx := context.Background()

	require.NoError(t, outbox.SendVerificationCode(ctx, "a@example.com", "012345"))
	require.NoError(t, outbox.SendPasswordResetCode(ctx, "b@example.com", "987654"))

	items, err := rdb.LRange(ctx, "auth:notifications", 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, items, 2)

	// LPUSH puts the newest message at the head.
	var reset, verify Message
	require.NoError(t, json.Unmarshal([]byte(items[0]), &reset))
	require.NoError(t, json.Unmarshal([]byte(items[1]), &verify))

	require.Equal(t, PurposeEmailVerification, verify.Purpose)
	require.Equal(t, "a@example.com", verify.Email)
	require.Equal(t, "012345", verify.Code)
	require.True(t, verify.CreatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))

	require.Equal(t, PurposePasswordReset, reset.Purpose)
	require.Equal(t, "987654", reset.Code)
}

func TestRedisOutboxReportsBackendFailure(t *testing.T) {
	outbox, _, mr := newOutboxTest(t)
	mr.Close()

	err := outbox.SendVerificationCode(context.Background(), "a@example.com", "012345")
	require.Error(t, err)
	require.Contains(t, err.Error(), "enqueue email_verification notification")
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Notifier = (*RedisOutbox)(nil)

// RedisOutbox pushes messages onto a Redis list consumed by the mail worker.
type RedisOutbox struct {
	rdb   redis.UniversalClient
	queue string
	now   func() time.Time
}

func NewRedisOutbox(rdb redis.UniversalClient, queue string) *RedisOutbox {
	return &RedisOutbox{rdb: rdb, queue: queue, now: time.Now}
}

func (o *RedisOutbox) SendVerificationCode(ctx context.Context, email, code string) error {
	return o.push(ctx, Message{Purpose: PurposeEmailVerification, Email: email, Code: code})
}

func (o *RedisOutbox) SendPasswordResetCode(ctx context.Context, email, code string) error {
	return o.push(ctx, Message{Purpose: PurposePasswordReset, Email: email, Code: code})
}

func (o *RedisOutbox) push(ctx context.Context, msg Message) error {
	msg.CreatedAt = o.now().UTC()
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := o.rdb.LPush(ctx, o.queue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue %s notification: %w", msg.Purpose, err)
	}
	return nil
}
